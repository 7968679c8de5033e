package aktenzeichen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JustJay7/kanzlei/internal/database"
	"gorm.io/gorm"
)

// StartKey is the einstellungen key holding the first number to issue.
const StartKey = "aktenzeichen_start"

// Suffix every case number ends with.
const Suffix = "awr"

var pattern = regexp.MustCompile(`^([0-9]+)\.\d{2}\.awr$`)

// Valid reports whether s has the form <sequence>.<yy>.awr.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Next computes the case number following existing. start is the first
// sequence number ever issued; numbers not matching the pattern are ignored.
func Next(existing []string, start int, now time.Time) string {
	highest := start - 1
	if highest < 0 {
		highest = 0
	}
	for _, az := range existing {
		m := pattern.FindStringSubmatch(strings.TrimSpace(az))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		// MaxInt has no successor
		if err != nil || n == math.MaxInt {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%d.%02d.%s", highest+1, now.Year()%100, Suffix)
}

// Generator derives the next number from the akten table on every call.
// Nothing is persisted between calls; callers that insert the result must
// serialize themselves.
type Generator struct {
	db           *gorm.DB
	defaultStart int
	now          func() time.Time
}

func NewGenerator(db *gorm.DB, defaultStart int) *Generator {
	return &Generator{db: db, defaultStart: defaultStart, now: time.Now}
}

// Next returns the next free case number.
func (g *Generator) Next(ctx context.Context) (string, error) {
	var existing []string
	if err := g.db.WithContext(ctx).
		Model(&database.Akte{}).
		Where("aktenzeichen LIKE ?", "%."+Suffix).
		Pluck("aktenzeichen", &existing).Error; err != nil {
		return "", fmt.Errorf("failed to load case numbers: %w", err)
	}

	start, err := g.Start(ctx)
	if err != nil {
		return "", err
	}

	return Next(existing, start, g.now()), nil
}

// Start returns the configured first sequence number, preferring the
// einstellungen row over the process default.
func (g *Generator) Start(ctx context.Context) (int, error) {
	var setting database.Einstellung
	err := g.db.WithContext(ctx).Where("schluessel = ?", StartKey).Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return g.defaultStart, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", StartKey, err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(setting.Wert))
	if err != nil || n < 1 {
		return g.defaultStart, nil
	}
	return n, nil
}
