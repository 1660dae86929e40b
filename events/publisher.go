package events

import "self-checkout/models"

// Publisher delivers notifications on a best-effort basis. Publish must not
// block the caller and never reports failure; a lost event is recovered by
// re-reading the cart or catalog.
type Publisher interface {
	Publish(event models.Event)
}

type nop struct{}

func (nop) Publish(models.Event) {}

// Nop discards every event.
func Nop() Publisher {
	return nop{}
}

type multi []Publisher

func (m multi) Publish(event models.Event) {
	for _, p := range m {
		p.Publish(event)
	}
}

// Multi fans each event out to every non-nil publisher.
func Multi(publishers ...Publisher) Publisher {
	var m multi
	for _, p := range publishers {
		if p != nil {
			m = append(m, p)
		}
	}
	if len(m) == 0 {
		return Nop()
	}
	return m
}
