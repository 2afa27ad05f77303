// Package admin implements the admin gate: the authorization
// predicate every admin-only action runs before its handler body.
package admin

import (
	"context"

	"github.com/attendsure/attendance-authority/pkg/errors"
)

// TeamClient checks admin-team membership against an external
// team-membership service. Satisfied by *admin.HTTPTeamClient.
type TeamClient interface {
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

// Gate is the admin authorization predicate. A missing caller id or
// missing admin-team configuration fails closed with AdminRequired.
type Gate struct {
	client TeamClient
	teamID string
}

// New creates a new admin Gate for the given admin-team identifier.
func New(client TeamClient, adminTeamID string) *Gate {
	return &Gate{client: client, teamID: adminTeamID}
}

// Require returns nil if callerID is a member of the admin team,
// otherwise an AdminRequired error. It runs before every admin-only
// handler body.
func (g *Gate) Require(ctx context.Context, callerID string) error {
	if callerID == "" || g.teamID == "" {
		return errors.AdminRequired()
	}

	isMember, err := g.client.IsMember(ctx, g.teamID, callerID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.AdminRequired()
	}
	return nil
}
