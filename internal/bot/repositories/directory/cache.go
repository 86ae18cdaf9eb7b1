// Package directory is the in-memory mirror of registered users, loaded
// once from the Directory worksheet and written through on every change.
package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/shiftkeeper/internal/bot/models"
	"github.com/dmitrijs2005/shiftkeeper/internal/bot/repositories/sheets"
	"github.com/dmitrijs2005/shiftkeeper/internal/common"
	"github.com/dmitrijs2005/shiftkeeper/internal/logging"
)

const (
	ColUID     = "UID"
	ColName    = "Name"
	ColVehicle = "Vehicle"
	ColRole    = "Role"
	ColCompany = "Company"
	ColStatus  = "Status"
)

// Header is the Directory worksheet layout.
var Header = []string{ColUID, ColName, ColVehicle, ColRole, ColCompany, ColStatus}

type record struct {
	driver models.Driver
	row    int
}

// Cache is safe for concurrent use. The store is always written before the
// map, so a failed write leaves the cache unchanged.
type Cache struct {
	table  *sheets.Table
	logger logging.Logger

	mu      sync.RWMutex
	drivers map[string]*record
	// rows counts data rows so the sheet row of a new record is known
	// without rescanning.
	rows int
}

// Open ensures the worksheet and loads every row.
func Open(ctx context.Context, store sheets.Store, sheet string, logger logging.Logger) (*Cache, error) {
	table, err := sheets.OpenTable(ctx, store, sheet, Header)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		table:   table,
		logger:  logger.With("module", "directory"),
		drivers: make(map[string]*record),
	}
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Load replaces the in-memory map with the worksheet contents. Rows with an
// empty UID or unknown role/status are skipped. When a UID appears twice
// the first row wins.
func (c *Cache) Load(ctx context.Context) error {
	rows, err := c.table.Rows(ctx)
	if err != nil {
		return fmt.Errorf("load directory: %w", err)
	}

	drivers := make(map[string]*record, len(rows))
	for _, row := range rows {
		d, err := parseRow(row)
		if err != nil {
			c.logger.Warn(ctx, "skipping directory row", "row", row.Number, "error", err)
			continue
		}
		if _, dup := drivers[d.UID]; dup {
			c.logger.Warn(ctx, "duplicate directory row", "row", row.Number, "uid", d.UID)
			continue
		}
		drivers[d.UID] = &record{driver: d, row: row.Number}
	}

	c.mu.Lock()
	c.drivers = drivers
	c.rows = len(rows)
	c.mu.Unlock()

	c.logger.Info(ctx, "directory loaded", "drivers", len(drivers))
	return nil
}

func parseRow(row sheets.Row) (models.Driver, error) {
	uid := row.Get(ColUID)
	if uid == "" {
		return models.Driver{}, fmt.Errorf("empty uid")
	}
	role, err := models.ParseRole(row.Get(ColRole))
	if err != nil {
		return models.Driver{}, err
	}
	status, err := models.ParseStatus(row.Get(ColStatus))
	if err != nil {
		return models.Driver{}, err
	}
	return models.Driver{
		UID:     uid,
		Name:    row.Get(ColName),
		Vehicle: row.Get(ColVehicle),
		Role:    role,
		Company: row.Get(ColCompany),
		Status:  status,
	}, nil
}

// Lookup returns a copy of the driver record or common.ErrorNotFound.
func (c *Cache) Lookup(uid string) (*models.Driver, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.drivers[uid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	d := r.driver
	return &d, nil
}

// Register adds a new driver. Any existing record for the UID, whatever its
// status, yields common.ErrDuplicate.
func (c *Cache) Register(ctx context.Context, d models.Driver) error {
	if d.Role == "" {
		d.Role = models.RoleDriver
	}
	if d.Status == "" {
		d.Status = models.StatusPending
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.drivers[d.UID]; ok {
		return fmt.Errorf("driver %s: %w", d.UID, common.ErrDuplicate)
	}

	err := c.table.Append(ctx, map[string]string{
		ColUID:     d.UID,
		ColName:    d.Name,
		ColVehicle: d.Vehicle,
		ColRole:    string(d.Role),
		ColCompany: d.Company,
		ColStatus:  string(d.Status),
	})
	if err != nil {
		return fmt.Errorf("register driver %s: %w", d.UID, err)
	}

	c.rows++
	c.drivers[d.UID] = &record{driver: d, row: c.rows + 1}
	c.logger.Info(ctx, "driver registered", "uid", d.UID, "status", d.Status)
	return nil
}

// UpdateStatus changes a driver's registration status.
func (c *Cache) UpdateStatus(ctx context.Context, uid string, status models.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.drivers[uid]
	if !ok {
		return fmt.Errorf("driver %s: %w", uid, common.ErrorNotFound)
	}
	if err := c.table.Update(ctx, r.row, ColStatus, string(status)); err != nil {
		return fmt.Errorf("update status of %s: %w", uid, err)
	}
	r.driver.Status = status
	c.logger.Info(ctx, "driver status changed", "uid", uid, "status", status)
	return nil
}

// List returns a snapshot of all drivers ordered by UID.
func (c *Cache) List() []models.Driver {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Driver, 0, len(c.drivers))
	for _, r := range c.drivers {
		out = append(out, r.driver)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}
