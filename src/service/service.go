// Package service is the client side of the WhiteSource agent API: inventory
// updates and policy compliance checks.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/whitesource/wss-agent/src/project"
)

// Service is the remote inventory service.
type Service interface {
	// CheckPolicyCompliance evaluates the inventory against the
	// organization's policies without storing it.
	CheckPolicyCompliance(ctx context.Context, req CheckPolicyComplianceRequest) (*CheckPolicyComplianceResult, error)

	// Update stores the inventory.
	Update(ctx context.Context, req UpdateRequest) (*UpdateResult, error)
}

// CheckPolicyComplianceRequest is the input of a compliance check.
type CheckPolicyComplianceRequest struct {
	OrgToken                  string
	UserKey                   string
	Product                   string
	ProductVersion            string
	Projects                  []*project.Info
	ForceCheckAllDependencies bool
}

// UpdateRequest is the input of an inventory update. UserKey is optional.
type UpdateRequest struct {
	OrgToken       string
	UserKey        string
	RequesterEmail string
	Product        string
	ProductVersion string
	Projects       []*project.Info
}

// ErrorKind classifies service failures.
type ErrorKind int

const (
	// KindService is a failure reported by, or while talking to, a reachable
	// service. Retrying will not help.
	KindService ErrorKind = iota
	// KindConnection is a transport failure: the service could not be
	// reached or the connection broke. Retrying may help.
	KindConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	default:
		return "service"
	}
}

// Error is returned by Service implementations.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsConnectionError reports whether err is a connection-kind service error.
func IsConnectionError(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindConnection
}
