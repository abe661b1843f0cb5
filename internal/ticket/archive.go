package ticket

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Domenick1991/skypass/internal/domain"
)

var ticketIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Archive stores rendered tickets as <dir>/<ticket id>.txt.
type Archive struct {
	dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// Save renders t and writes it, replacing an earlier copy. It returns the path.
func (a *Archive) Save(t domain.TicketDetails) (string, error) {
	if !ticketIDPattern.MatchString(t.TicketID) {
		return "", fmt.Errorf("%w: ticket id %q", domain.ErrValidation, t.TicketID)
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create ticket dir: %w", err)
	}
	path := filepath.Join(a.dir, t.TicketID+".txt")
	if err := os.WriteFile(path, []byte(Render(t)), 0o644); err != nil {
		return "", fmt.Errorf("write ticket %s: %w", t.TicketID, err)
	}
	return path, nil
}
