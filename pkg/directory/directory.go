// Package directory mirrors the organizations and users of the external
// identity directory into the document graph.
package directory

import (
	"context"

	"github.com/OFFIS-RIT/papertext/backend/pkg/common"
)

// Directory lists the identities known to the identity service.
type Directory interface {
	ListOrganizations(ctx context.Context) ([]common.Organization, error)
	ListUsers(ctx context.Context) ([]common.User, error)
}

// Static is a fixed in-process Directory.
type Static struct {
	Organizations []common.Organization
	Users         []common.User
}

func (s *Static) ListOrganizations(ctx context.Context) ([]common.Organization, error) {
	return s.Organizations, nil
}

func (s *Static) ListUsers(ctx context.Context) ([]common.User, error) {
	return s.Users, nil
}
