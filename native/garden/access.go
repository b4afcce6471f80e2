package garden

import (
	"strings"

	"blueberry/core/events"
	"blueberry/crypto"
)

// AccessRegistry maps accounts to a single role tag. The distinguished
// RoleFullAccess tag grants permission to call every governance-gated
// operation; any holder may reassign any account's tag, including revoking
// their own.
type AccessRegistry struct {
	state  State
	events events.Emitter
}

// NewAccessRegistry constructs an access registry over the provided state.
func NewAccessRegistry(st State, emitter events.Emitter) *AccessRegistry {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &AccessRegistry{state: st, events: emitter}
}

// SetRole assigns the role tag to the account. The caller must hold full
// access; the previous tag, if any, is overwritten (last-write-wins). An
// empty tag revokes the assignment.
func (r *AccessRegistry) SetRole(caller, account crypto.Address, role string) error {
	if !r.state.HasRole(addressKey(caller), RoleFullAccess) {
		return ErrUnauthorized
	}
	if account.IsZero() {
		return ErrInvalidAddress
	}
	trimmed := strings.TrimSpace(role)
	if err := r.state.SetRole(addressKey(account), trimmed); err != nil {
		return err
	}
	var raw [20]byte
	copy(raw[:], account.Bytes())
	r.events.Emit(events.RoleChanged{Account: raw, Role: trimmed})
	return nil
}

// Role returns the role tag assigned to the account, or the empty tag when
// unset.
func (r *AccessRegistry) Role(account crypto.Address) (string, error) {
	return r.state.Role(addressKey(account))
}

// FullAccess returns the distinguished tag granting all governance
// permissions.
func (r *AccessRegistry) FullAccess() string {
	return RoleFullAccess
}

// HasFullAccess reports whether the account currently holds the full-access
// tag.
func (r *AccessRegistry) HasFullAccess(account crypto.Address) bool {
	return r.state.HasRole(addressKey(account), RoleFullAccess)
}

// bootstrap grants the deploying admin full access without a permission
// check. It is only reachable from garden construction.
func (r *AccessRegistry) bootstrap(admin crypto.Address) error {
	if admin.IsZero() {
		return ErrInvalidAddress
	}
	return r.state.SetRole(addressKey(admin), RoleFullAccess)
}
