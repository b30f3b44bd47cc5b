// Package gateway is the console's REST collaborator: typed access to the
// gateway's node inventory, access grants, hub health probe, user CRUD and
// the aggregated tunnels dashboard, plus the credential accessor used to
// authenticate the event channel handshake.
//
// The event channel itself (package channel) never calls any of this; pages
// consume the two independently.
package gateway
