package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/flowtrap/pkg/flowtrap"
)

func writeFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interaction.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const mutexFixture = `
system:
  components:
    - name: P
      initial: idle
      transitions:
        - source: idle
          label: enter
          target: crit
        - source: crit
          label: leave
          target: idle
clauses:
  - ports:
      - label: enter
        argument: x
  - ports:
      - label: leave
        argument: x
properties:
  nomutex: "ex1 x, y: (x ~= y & x in crit & y in crit)"
`

func TestLoadAndBuildProducesUsableInteraction(t *testing.T) {
	path := writeFixture(t, mutexFixture)

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Clauses, 2)

	interaction, err := f.Build()
	require.NoError(t, err)
	require.Len(t, interaction.Clauses, 2)
	require.Equal(t, []string{"deadlock", "nomutex"}, interaction.PropertyNames())
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
	var flowErr *flowtrap.Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, flowtrap.ErrParseError, flowErr.Kind)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeFixture(t, "system: [this is not a mapping")
	_, err := Load(path)
	require.Error(t, err)
	var flowErr *flowtrap.Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, flowtrap.ErrParseError, flowErr.Kind)
}

func TestBuildRejectsUnknownRestrictionKind(t *testing.T) {
	path := writeFixture(t, `
system:
  components:
    - name: P
      initial: idle
      transitions:
        - source: idle
          label: enter
          target: crit
clauses:
  - guard:
      - kind: frobnicate
        left: x
        right: y
    ports:
      - label: enter
        argument: x
`)
	f, err := Load(path)
	require.NoError(t, err)
	_, err = f.Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown restriction kind")
	var flowErr *flowtrap.Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, flowtrap.ErrParseError, flowErr.Kind)
}

func TestBuildPropagatesSystemValidationFailure(t *testing.T) {
	path := writeFixture(t, `
system:
  components:
    - name: P
      initial: idle
      transitions:
        - source: idle
          label: enter
          target: crit
    - name: Q
      initial: idle
      transitions:
        - source: idle
          label: enter
          target: crit
clauses: []
`)
	f, err := Load(path)
	require.NoError(t, err)
	_, err = f.Build()
	require.Error(t, err)
	var flowErr *flowtrap.Error
	require.ErrorAs(t, err, &flowErr)
	require.Equal(t, flowtrap.ErrNotDisjointLabels, flowErr.Kind)
}

func TestBuildWiresBroadcastBody(t *testing.T) {
	path := writeFixture(t, `
system:
  components:
    - name: Node
      initial: wait
      transitions:
        - source: wait
          label: recv
          target: crit
        - source: crit
          label: pass
          target: wait
clauses:
  - ports:
      - label: recv
        argument: x
    broadcasts:
      - variable: q
        guard:
          - - kind: unequal
              left: x
              right: q
        body:
          - label: pass
            argument: q
`)
	f, err := Load(path)
	require.NoError(t, err)
	interaction, err := f.Build()
	require.NoError(t, err)
	require.Len(t, interaction.Clauses[0].Broadcasts, 1)
}
