package shared

import "time"

// AggregateRoot is an entity that versions its changes and queues the
// events they raise until the owner drains them
type AggregateRoot interface {
	Entity
	GetVersion() int
	MarkChanged(now time.Time)
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot implements AggregateRoot for embedding
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version, starting at 1 and bumped by every MarkChanged
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// MarkChanged stamps the update time and bumps the version
func (a *BaseAggregateRoot) MarkChanged(now time.Time) {
	a.Touch(now)
	a.Version++
}

// AddDomainEvent queues an event for publication
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns queued events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops queued events, typically right after draining them
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a version 1 aggregate created at now
func NewBaseAggregateRoot(now time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(now),
		Version:    1,
	}
}
