package appenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLaterMapsWin(t *testing.T) {
	base := Vars{"A": "1", "B": "2"}
	merged := Merge(base, Vars{"B": "3"}, Vars{"C": "4"})
	assert.Equal(t, Vars{"A": "1", "B": "3", "C": "4"}, merged)
	assert.Equal(t, Vars{"A": "1", "B": "2"}, base)
}

func TestMergeIsIdempotent(t *testing.T) {
	snapshot := Vars{"PATH": "/bin", VarServerName: "stale"}
	env := Synthesize("/app/index.php", "http://localhost/app/index.php").Vars()
	once := Merge(snapshot, env)
	twice := Merge(Merge(snapshot, env), env)
	assert.Equal(t, once, twice)
	assert.Equal(t, "localhost", once[VarServerName])
}

func TestVarsKeysAreSorted(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, Vars{"C": "", "A": "", "B": ""}.Keys())
}

func TestParseEnviron(t *testing.T) {
	vars := ParseEnviron([]string{"A=1", "B=x=y", "broken", "=C:=C:\\"})
	assert.Equal(t, Vars{"A": "1", "B": "x=y"}, vars)
}

func TestCaptureProcessEnvironment(t *testing.T) {
	t.Setenv("APPENV_CAPTURE_TEST", "yes")
	assert.Equal(t, "yes", CaptureProcessEnvironment().Get("APPENV_CAPTURE_TEST"))
}
