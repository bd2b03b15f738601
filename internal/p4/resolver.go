package p4

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// migratableTypes are the depot types whose files live on the server's local
// disk and can be moved to object storage.
var migratableTypes = map[string]bool{
	"stream":  true,
	"local":   true,
	"archive": true,
}

// DepotInfo is a read-only snapshot of one depot's spec
type DepotInfo struct {
	Name    string
	Type    string
	Map     string
	Address string
}

// HasS3Address reports whether the depot spec already points at object
// storage. Migrating such a depot again may duplicate files that were never
// on local disk to begin with.
func (d DepotInfo) HasS3Address() bool {
	return strings.Contains(d.Address, "s3")
}

// Depots returns the names of all migratable depots on the server
func (c *Client) Depots(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, "depots")
	if err != nil {
		return nil, fmt.Errorf("list depots: %w", err)
	}

	var names []string
	for _, rec := range parseTagged(out) {
		if migratableTypes[rec["type"]] {
			names = append(names, rec["name"])
		}
	}

	return names, nil
}

// DepotInfo fetches one depot's spec
func (c *Client) DepotInfo(ctx context.Context, name string) (DepotInfo, error) {
	out, err := c.runner.Run(ctx, "depot", "-o", name)
	if err != nil {
		return DepotInfo{}, fmt.Errorf("fetch depot spec for %s: %w", name, err)
	}

	records := parseTagged(out)
	if len(records) == 0 {
		return DepotInfo{}, fmt.Errorf("no spec returned for depot %s", name)
	}

	rec := records[0]
	return DepotInfo{
		Name:    name,
		Type:    rec["Type"],
		Map:     rec["Map"],
		Address: rec["Address"],
	}, nil
}

// DepotRoot returns the directory under which depot files are stored: the
// server.depot.root configurable when set, otherwise P4ROOT.
func (c *Client) DepotRoot(ctx context.Context) (string, error) {
	if root, err := c.configuredValue(ctx, "server.depot.root"); err == nil && root != "" {
		return root, nil
	}

	root, err := c.configuredValue(ctx, "P4ROOT")
	if err != nil {
		return "", fmt.Errorf("resolve depot root: %w", err)
	}
	if root == "" {
		return "", fmt.Errorf("server reported no P4ROOT")
	}

	return root, nil
}

func (c *Client) configuredValue(ctx context.Context, name string) (string, error) {
	out, err := c.runner.Run(ctx, "configure", "show", name)
	if err != nil {
		return "", err
	}

	records := parseTagged(out)
	if len(records) == 0 {
		return "", nil
	}

	return records[0]["Value"], nil
}

// ResolveDepotDir computes the local directory a depot's files occupy. The
// depot Map is either already absolute or relative to the depot root; either
// way the resulting directory's parent must exist on this host, which it will
// only when running on the server itself as the p4d service user.
func ResolveDepotDir(info DepotInfo, depotRoot string) (string, error) {
	mapDir := strings.TrimSuffix(filepath.FromSlash(info.Map), string(filepath.Separator)+"...")

	if filepath.IsAbs(mapDir) && parentExists(mapDir) {
		return mapDir, nil
	}

	joined := filepath.Join(depotRoot, mapDir)
	if filepath.IsAbs(joined) && parentExists(joined) {
		return joined, nil
	}

	return "", fmt.Errorf(
		"depot %s has no local directory at %s; run this tool on the server itself, as the same user as the p4d service",
		info.Name, joined)
}

func parentExists(dir string) bool {
	_, err := os.Stat(filepath.Dir(dir))
	return err == nil
}
