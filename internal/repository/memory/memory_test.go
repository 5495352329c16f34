package memory

import (
	"testing"

	"github.com/splax/teamup/internal/repository/repotest"
)

func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Store { return New() })
}
