package verdict

import (
	"fmt"

	"github.com/nao1215/opentip/internal/model"
)

// FormatIOC renders the line printed for an indicator lookup.
func FormatIOC(r model.IOCResult) string {
	switch {
	case r.Error:
		return "[ERROR]: " + r.IOC
	case r.Known():
		return fmt.Sprintf("[IOC]: %s : %s", r.IOC, r.Data)
	default:
		return fmt.Sprintf("[IOC]: %s : Unknown", r.IOC)
	}
}
