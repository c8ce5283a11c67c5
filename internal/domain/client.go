// Package domain contains entity without logic, just meta-data
package domain

import "github.com/google/uuid"

// ClientID identifies one live transport connection. It is assigned at
// upgrade time and dies with the connection.
type ClientID string

// NewClientID avoids scattering uuid calls around the adapters.
func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}
