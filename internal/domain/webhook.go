package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebHookTrigger is the authoritative outbox trigger set from spec §4.8
// (SPEC_FULL.md §4 decision 2: the only trigger enum this core implements).
type WebHookTrigger string

const (
	TriggerUserAccountCreated         WebHookTrigger = "UserAccountCreated"
	TriggerSubscriptionAccountCreated WebHookTrigger = "SubscriptionAccountCreated"
	TriggerSubscriptionAccountUpdated WebHookTrigger = "SubscriptionAccountUpdated"
	TriggerSubscriptionAccountDeleted WebHookTrigger = "SubscriptionAccountDeleted"
	TriggerUserAccountUpdated         WebHookTrigger = "UserAccountUpdated"
	TriggerUserAccountDeleted         WebHookTrigger = "UserAccountDeleted"
	TriggerGuestAccountInvited        WebHookTrigger = "GuestAccountInvited"
	TriggerGuestAccountRevoked        WebHookTrigger = "GuestAccountRevoked"
)

// HTTPMethodForTrigger maps a trigger to the outbound HTTP verb (spec §4.8
// step 3): POST for create/invite, PUT for update, DELETE for delete/revoke.
func HTTPMethodForTrigger(t WebHookTrigger) string {
	switch t {
	case TriggerUserAccountCreated, TriggerSubscriptionAccountCreated, TriggerGuestAccountInvited:
		return "POST"
	case TriggerSubscriptionAccountUpdated, TriggerUserAccountUpdated:
		return "PUT"
	case TriggerSubscriptionAccountDeleted, TriggerUserAccountDeleted, TriggerGuestAccountRevoked:
		return "DELETE"
	default:
		return "POST"
	}
}

// AuthInjectionKind discriminates HttpSecret.
type AuthInjectionKind string

const (
	AuthInjectionHeader AuthInjectionKind = "header"
	AuthInjectionQuery  AuthInjectionKind = "query"
)

// HttpSecret is the decrypted form of a webhook target's credential
// (spec §3 WebHook.secret, §4.8 step 3). The encrypted form is persisted;
// this struct only ever exists in memory during dispatch.
type HttpSecret struct {
	Kind       AuthInjectionKind
	HeaderName string // AuthorizationHeader
	Prefix     string // AuthorizationHeader, e.g. "Bearer "
	QueryName  string // QueryParameter
	Token      string
}

// WebHook is a registered delivery target (spec §3).
type WebHook struct {
	ID          uuid.UUID
	Name        string
	Description *string
	URL         string
	Trigger     WebHookTrigger
	SecretEnc   *string // ciphertext; decrypt via internal/cryptox before dispatch
	IsActive    bool
	Created     time.Time
	Updated     time.Time
}

// ArtifactStatus is the outbox row's lifecycle state (spec §3).
type ArtifactStatus string

const (
	ArtifactPending ArtifactStatus = "Pending"
	ArtifactSuccess ArtifactStatus = "Success"
	ArtifactFailed  ArtifactStatus = "Failed"
	ArtifactUnknown ArtifactStatus = "Unknown"
)

// HookResponse records one webhook target's response to a dispatch
// attempt (spec §4.8 step 4).
type HookResponse struct {
	URL    string
	Status int
	Body   *string
}

// WebHookPayloadArtifact is the durable outbox row (spec §3).
type WebHookPayloadArtifact struct {
	ID           uuid.UUID
	PayloadB64   string // base64(json(DTO)); see spec §4.8 "Payload"
	Trigger      WebHookTrigger
	Propagations []HookResponse
	Encrypted    bool
	Attempts     uint8
	Attempted    *time.Time
	Created      time.Time
	Status       ArtifactStatus
}

// MaxAttemptsReached reports whether the artifact has exhausted its
// retry budget (spec §4.8 worker loop step 1, testable property #6).
func (a *WebHookPayloadArtifact) MaxAttemptsReached(maxAttempts uint8) bool {
	return a.Attempts >= maxAttempts
}
