// Package events defines the typed event surface the orchestration core
// exposes to presentation layers.
//
// Every event embeds [Base] and is identified by a [Kind]. Consumers switch on
// the concrete type (or on Kind) and must tolerate unknown kinds: new event
// types may be added without notice.
package events
