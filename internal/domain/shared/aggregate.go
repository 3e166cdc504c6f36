package shared

// BaseAggregateRoot extends BaseEntity with the optimistic-lock version
// and a buffer of domain events raised since the last load. Events are
// collected in memory and drained by whoever persists the aggregate.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot mints a fresh aggregate at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// IncrementVersion records one committed mutation for optimistic locking.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent buffers an event for publication after the aggregate
// is saved.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the buffered events in the order they were
// raised.
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents empties the buffer once the events are published.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}
