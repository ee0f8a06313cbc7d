package preflight

import (
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"time"

	"golang.org/x/sys/unix"

	"shortforge/internal/clients"
	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/quota"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTimezone verifies the timezone name resolves to a known location.
func CheckTimezone(name, tz string) Result {
	if tz == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", tz, err)}
	}
	return Result{Name: name, Passed: true, Detail: tz}
}

// CheckBindAddress verifies a host:port bind address parses.
func CheckBindAddress(name, bind string) Result {
	if _, _, err := net.SplitHostPort(bind); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", bind, err)}
	}
	return Result{Name: name, Passed: true, Detail: bind}
}

// CheckClientsFile parses and validates the clients file. The parsed
// profiles are returned so later checks can inspect provider bindings; a
// failed check returns nil profiles.
func CheckClientsFile(path string) (Result, []clients.Profile) {
	const name = "Clients file"

	profiles, err := clients.Load(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}, nil
	}
	for _, client := range profiles {
		if err := client.Validate(); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("client %s invalid: %v", client.ID, err)}, nil
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d client(s) configured", len(profiles))}, profiles
}

// CheckJobsStore opens and closes the jobs database to prove the schema applies.
func CheckJobsStore(ctx context.Context, dbPath string) Result {
	return checkStore(ctx, "Jobs store", dbPath, openJobs)
}

// CheckQuotaStore opens and closes the quota database to prove the schema applies.
func CheckQuotaStore(ctx context.Context, dbPath string) Result {
	return checkStore(ctx, "Quota store", dbPath, openQuota)
}

func checkStore(_ context.Context, name, dbPath string, open func(string) (closer, error)) Result {
	store, err := open(dbPath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dbPath, err)}
	}
	if err := store.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: close: %v)", dbPath, err)}
	}
	return Result{Name: name, Passed: true, Detail: dbPath}
}

type closer interface {
	Close() error
}

func openJobs(path string) (closer, error) {
	return jobs.Open(path)
}

func openQuota(path string) (closer, error) {
	return quota.Open(path)
}

// CheckCredentials reports one result per credential required by the live
// provider bindings found in the client profiles.
func CheckCredentials(cfg *config.Config, profiles []clients.Profile) []Result {
	required := requiredCredentials(cfg, profiles)

	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]Result, 0, len(names))
	for _, name := range names {
		if required[name] == "" {
			results = append(results, Result{Name: name, Detail: "not set in environment"})
			continue
		}
		results = append(results, Result{Name: name, Passed: true, Detail: "present"})
	}
	return results
}
