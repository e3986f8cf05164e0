package couchdb

import (
	"context"
	"fmt"
	"net/http"

	kivik "github.com/go-kivik/kivik/v4"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// userPrefix is the _users document ID prefix.
const userPrefix = "org.couchdb.user:"

// Ping checks the server is reachable and returns its version.
func (c *Client) Ping(ctx context.Context) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	v, err := c.kivik.Version(ctx)
	if err != nil {
		return "", c.wrapError(ctx, err, "version")
	}
	return v.Version, nil
}

// CreateDatabase creates the bound database. An existing database is not
// an error.
func (c *Client) CreateDatabase(ctx context.Context) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	err := c.kivik.CreateDB(ctx, c.database)
	if kivik.HTTPStatus(err) == http.StatusPreconditionFailed {
		return false, nil
	}
	if err != nil {
		return false, c.wrapError(ctx, err, "create database "+c.database)
	}
	return true, nil
}

// CreateIndex creates a JSON Mango index. It reports false when an index
// with the same name already exists.
func (c *Client) CreateIndex(ctx context.Context, idx domain.IndexDefinition) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	existing, err := c.db.GetIndexes(ctx)
	if err != nil {
		return false, c.wrapError(ctx, err, "list indexes")
	}
	for _, e := range existing {
		if e.Name == idx.Name {
			return false, nil
		}
	}
	index := map[string]interface{}{"fields": idx.Fields}
	if err := c.db.CreateIndex(ctx, "", idx.Name, index); err != nil {
		return false, c.wrapError(ctx, err, "create index "+idx.Name)
	}
	return true, nil
}

// PutUser creates a user in the _users database.
func (c *Client) PutUser(ctx context.Context, user domain.User) error {
	if err := c.ready(); err != nil {
		return err
	}
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	body := map[string]interface{}{
		"name":     user.Name,
		"password": user.Password,
		"roles":    roles,
		"type":     "user",
	}
	_, err := c.kivik.DB("_users").Put(ctx, userPrefix+user.Name, body)
	if kivik.HTTPStatus(err) == http.StatusConflict {
		return fmt.Errorf("user %s: %w", user.Name, domain.ErrAlreadyExists)
	}
	return c.wrapError(ctx, err, "put user "+user.Name)
}

// GetSecurity returns the database security object.
func (c *Client) GetSecurity(ctx context.Context) (*domain.SecurityDoc, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	sec, err := c.db.Security(ctx)
	if err != nil {
		return nil, c.wrapError(ctx, err, "get security")
	}
	return &domain.SecurityDoc{
		Admins:  domain.SecurityGroup{Names: sec.Admins.Names, Roles: sec.Admins.Roles},
		Members: domain.SecurityGroup{Names: sec.Members.Names, Roles: sec.Members.Roles},
	}, nil
}

// PutSecurity replaces the database security object.
func (c *Client) PutSecurity(ctx context.Context, sec domain.SecurityDoc) error {
	if err := c.ready(); err != nil {
		return err
	}
	err := c.db.SetSecurity(ctx, &kivik.Security{
		Admins:  kivik.Members{Names: sec.Admins.Names, Roles: sec.Admins.Roles},
		Members: kivik.Members{Names: sec.Members.Names, Roles: sec.Members.Roles},
	})
	return c.wrapError(ctx, err, "put security")
}
