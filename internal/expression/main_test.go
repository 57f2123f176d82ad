package expression

import (
	"testing"

	"github.com/Ergy12/caldeco/internal/testhelper"
)

func TestMain(m *testing.M) {
	testhelper.Run(m)
}
