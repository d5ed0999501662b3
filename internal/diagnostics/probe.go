// Package diagnostics implements the self-describing health report served
// on /test. Probe never fails: every collaborator problem ends up as text
// in the Report.
package diagnostics

import (
	"context"
	"errors"
	"fmt"

	"adalbertofjr/digital-products-api/internal/database"

	"go.uber.org/zap"
)

const (
	maxCollections = 10
	maxErrorRunes  = 50
)

const (
	BackendRunning = "✅ Running"

	DatabaseNotAvailable   = "❌ Not Available"
	DatabaseModuleNotFound = "❌ Database module not found (run enable-database first)"
	DatabaseNotInitialized = "⚠️  Available but not initialized"
	DatabaseAvailable      = "✅ Available"
	DatabaseWorking        = "✅ Connected & Working"

	URLConfigured     = "✅ Configured"
	NameFallback      = "✅ Connected"
	EnvSet            = "✅ Set"
	EnvNotSet         = "❌ Not Set"
	StatusConnected   = "Connected"
	StatusUnconnected = "Not Connected"
)

// Report is rebuilt on every request.
type Report struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

type Prober struct {
	locator   database.Locator
	lookupEnv LookupEnv
	logger    *zap.Logger
}

func NewProber(locator database.Locator, lookupEnv LookupEnv, logger *zap.Logger) *Prober {
	if locator == nil {
		locator = database.Absent{}
	}
	return &Prober{locator: locator, lookupEnv: lookupEnv, logger: logger}
}

func (p *Prober) Probe(ctx context.Context) Report {
	report := Report{
		Backend:          BackendRunning,
		Database:         DatabaseNotAvailable,
		ConnectionStatus: StatusUnconnected,
		Collections:      []string{},
	}

	p.probeDatabase(ctx, &report)

	// env flags are independent of the collaborator and win over it
	report.DatabaseURL = p.envFlag("DATABASE_URL")
	report.DatabaseName = p.envFlag("DATABASE_NAME")

	return report
}

func (p *Prober) probeDatabase(ctx context.Context, report *Report) {
	handle, err := locate(p.locator)
	switch {
	case errors.Is(err, database.ErrModuleNotFound):
		report.Database = DatabaseModuleNotFound
		return
	case err != nil:
		p.logger.Warn("database lookup failed", zap.Error(err))
		report.Database = "❌ Error: " + truncate(err.Error(), maxErrorRunes)
		return
	case handle == nil:
		report.Database = DatabaseNotInitialized
		return
	}

	report.Database = DatabaseAvailable
	report.DatabaseURL = URLConfigured
	report.DatabaseName = NameFallback
	if namer, ok := handle.(database.Namer); ok {
		if name := namer.Name(); name != "" {
			report.DatabaseName = name
		}
	}
	report.ConnectionStatus = StatusConnected

	names, err := listCollections(ctx, handle)
	if err != nil {
		p.logger.Warn("database enumeration failed", zap.Error(err))
		report.Database = "⚠️  Connected but Error: " + truncate(err.Error(), maxErrorRunes)
		return
	}

	if len(names) > maxCollections {
		names = names[:maxCollections]
	}
	report.Collections = append(report.Collections, names...)
	report.Database = DatabaseWorking
}

func (p *Prober) envFlag(key string) string {
	if p.lookupEnv == nil {
		return EnvNotSet
	}
	if value, ok := p.lookupEnv(key); ok && value != "" {
		return EnvSet
	}
	return EnvNotSet
}

func locate(locator database.Locator) (handle database.Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			handle, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return locator.Locate()
}

func listCollections(ctx context.Context, handle database.Handle) (names []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			names, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return handle.ListCollectionNames(ctx)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
