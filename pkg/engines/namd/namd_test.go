package namd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simgate/simgate/pkg/engines"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/protocol"
)

func line(key, value string) string {
	return fmt.Sprintf("%-21s %s", key, value)
}

func TestConfig_Minimisation(t *testing.T) {
	config, err := Config(protocol.NewMinimisation(), "namd", true)
	require.NoError(t, err)

	assert.Equal(t, "structure             namd.psf", config[0])
	assert.Contains(t, config, line("coordinates", "namd.pdb"))
	assert.Contains(t, config, line("paraTypeCharmm", "on"))
	assert.Contains(t, config, line("parameters", "namd.params"))
	assert.Contains(t, config, line("exclude", "scaled1-4"))
	assert.Contains(t, config, line("outputName", "namd_out"))
	assert.Contains(t, config, line("minimize", "10000"))
}

func TestConfig_WithoutCharmmParams(t *testing.T) {
	config, err := Config(protocol.NewMinimisation(), "namd", false)
	require.NoError(t, err)

	assert.NotContains(t, config, line("paraTypeCharmm", "on"))
	assert.NotContains(t, config, line("parameters", "namd.params"))
}

func TestConfig_Equilibration(t *testing.T) {
	pressure := 1.0

	tests := []struct {
		name    string
		mutate  func(p *protocol.Equilibration)
		want    []string
		notWant []string
	}{
		{
			name:   "defaults",
			mutate: func(p *protocol.Equilibration) {},
			want: []string{
				line("set temperature", "300.00"),
				line("temperature", "$temperature"),
				line("timestep", "2.00"),
				line("rigidBonds", "all"),
				line("langevin", "on"),
				line("langevinTemp", "$temperature"),
				line("outputEnergies", "100"),
				line("restartfreq", "500"),
				line("run", "100000"),
			},
			notWant: []string{
				line("langevinPiston", "on"),
				line("fixedAtoms", "yes"),
				line("reassignIncr", "1."),
			},
		},
		{
			name: "heating run reassigns temperature",
			mutate: func(p *protocol.Equilibration) {
				p.StartTemperature = 10
			},
			want: []string{
				line("reassignFreq", "344"),
				line("reassignTemp", "10.00"),
				line("reassignIncr", "1."),
				line("reassignHold", "300.00"),
			},
		},
		{
			name: "constant pressure drives the piston",
			mutate: func(p *protocol.Equilibration) {
				p.Pressure = &pressure
			},
			want: []string{
				line("langevinPiston", "on"),
				line("langevinPistonTarget", "1.01325"),
				line("useGroupPressure", "yes"),
			},
		},
		{
			name: "restrained run fixes atoms",
			mutate: func(p *protocol.Equilibration) {
				p.Restraint = protocol.RestraintBackbone
			},
			want: []string{
				line("fixedAtoms", "yes"),
				line("fixedAtomsFile", "namd.restrained"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := protocol.NewEquilibration()
			tt.mutate(p)

			config, err := Config(p, "namd", true)
			require.NoError(t, err)

			for _, want := range tt.want {
				assert.Contains(t, config, want)
			}

			for _, notWant := range tt.notWant {
				assert.NotContains(t, config, notWant)
			}
		})
	}
}

func TestConfig_Production(t *testing.T) {
	p := protocol.NewProduction()

	config, err := Config(p, "namd", true)
	require.NoError(t, err)

	assert.Contains(t, config, line("set temperature", "300.00"))
	assert.Contains(t, config, line("run", "500000"))
	assert.NotContains(t, config, line("firsttimestep", "500000"))

	p.FirstStep = 500000

	config, err = Config(p, "namd", true)
	require.NoError(t, err)

	assert.Contains(t, config, line("firsttimestep", "500000"))
}

func TestConfig_FreeEnergyUnsupported(t *testing.T) {
	_, err := Config(protocol.NewFreeEnergy(), "namd", true)
	assert.ErrorIs(t, err, engines.ErrUnsupportedProtocol)
}

const namdOutput = `Info: NAMD 2.14 for Linux-x86_64-multicore
Info: Running on 4 processors
ETITLE:      TS           BOND          ANGLE          DIHED          IMPRP          ELECT            VDW       BOUNDARY           MISC        KINETIC          TOTAL           TEMP      POTENTIAL         TOTAL3        TEMPAVG       PRESSURE      GPRESSURE         VOLUME       PRESSAVG      GPRESSAVG

ENERGY:       0      20974.8633     19756.1591      5724.4523       179.8271   -337741.4202     23251.1002          0.0000          0.0000     45359.0775   -222496.0041       297.7598   -267855.0816   -222343.0895       298.0034     -2726.8143     -2177.6927    921491.4634     -2726.8143     -2177.6927

TIMING: 100  CPU: 12.3456, 0.0123/step  Wall: 12.5678, 0.0125/step, 0.3472 hours remaining, 512.000000 MB of memory in use.
ENERGY:     100      20900.1000     19700.2000      5700.3000       180.4000   -337700.5000     23200.6000          0.0000          0.0000     45300.7000   -222418.3000       297.5000   -267719.0000   -222265.1000       297.8000     -2700.9000     -2150.1000    921490.2000     -2700.9000     -2150.1000
`

func newOutputProcess(t *testing.T) *process.Process {
	t.Helper()

	proc, err := process.New(process.Config{Name: "namd", Exe: "namd2", WorkDir: t.TempDir()})
	require.NoError(t, err)

	return proc
}

func appendOutput(t *testing.T, proc *process.Process, content string) {
	t.Helper()

	file, err := os.OpenFile(proc.StdoutPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)

	_, err = file.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, file.Close())
}

func TestUpdateRecords(t *testing.T) {
	proc := newOutputProcess(t)
	appendOutput(t, proc, namdOutput)

	eng := New("")
	records := process.NewRecordSet()
	require.NoError(t, eng.UpdateRecords(proc, records))

	assert.Equal(t, []string{"0", "100"}, records.Series("TS"))

	temp, ok := records.Latest("TEMP")
	require.True(t, ok)
	assert.Equal(t, "297.5000", temp)

	potential, ok := records.LatestFloat("POTENTIAL")
	require.True(t, ok)
	assert.InDelta(t, -267719.0, potential, 1e-6)

	volume, ok := records.Latest("VOLUME")
	require.True(t, ok)
	assert.Equal(t, "921490.2000", volume)
}

func TestUpdateRecords_MismatchedRowSkipped(t *testing.T) {
	proc := newOutputProcess(t)
	appendOutput(t, proc, namdOutput)

	eng := New("")
	records := process.NewRecordSet()
	require.NoError(t, eng.UpdateRecords(proc, records))

	appendOutput(t, proc, "ENERGY:     200      1.0     2.0\n")
	require.NoError(t, eng.UpdateRecords(proc, records))

	assert.Equal(t, []string{"0", "100"}, records.Series("TS"))
}

func TestUpdateRecords_MissingOutput(t *testing.T) {
	proc := newOutputProcess(t)

	records := process.NewRecordSet()
	require.NoError(t, New("").UpdateRecords(proc, records))
	assert.Equal(t, 0, records.Len())
}

func TestETA(t *testing.T) {
	proc := newOutputProcess(t)
	eng := New("")

	_, ok := eng.ETA()
	assert.False(t, ok)

	appendOutput(t, proc, namdOutput)
	require.NoError(t, eng.UpdateRecords(proc, process.NewRecordSet()))

	eta, ok := eng.ETA()
	require.True(t, ok)
	assert.InDelta(t, 0.3472*60, eta.Minutes(), 1e-6)
}

func writeInputFiles(t *testing.T) engines.Input {
	t.Helper()

	dir := t.TempDir()

	pdb := filepath.Join(dir, "system.pdb")
	require.NoError(t, os.WriteFile(pdb, []byte("ATOM\n"), 0o644))

	psf := filepath.Join(dir, "system.psf")
	require.NoError(t, os.WriteFile(psf, []byte("PSF\n"), 0o644))

	params := filepath.Join(dir, "system.params")
	require.NoError(t, os.WriteFile(params, []byte("BONDS\n"), 0o644))

	return engines.Input{Coordinates: []string{pdb}, Topology: psf, Parameters: params}
}

func TestPrepare(t *testing.T) {
	eng := New("")

	proc, err := process.New(process.Config{Name: "namd", Exe: "namd2", WorkDir: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, eng.Prepare(context.Background(), proc, protocol.NewEquilibration(), writeInputFiles(t)))

	for _, name := range []string{"namd.pdb", "namd.psf", "namd.params"} {
		_, err := os.Stat(proc.InputPath(name))
		require.NoError(t, err, "missing staged file %s", name)
	}

	config, err := os.ReadFile(proc.InputPath("namd.namd"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "structure             namd.psf")
	assert.Contains(t, string(config), "langevin")

	assert.Equal(t, "namd2 namd.namd", proc.ArgString())
}

func TestPrepare_RestraintFileRequired(t *testing.T) {
	eng := New("")

	proc, err := process.New(process.Config{Name: "namd", Exe: "namd2", WorkDir: t.TempDir()})
	require.NoError(t, err)

	p := protocol.NewEquilibration()
	p.Restraint = protocol.RestraintBackbone

	err = eng.Prepare(context.Background(), proc, p, writeInputFiles(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restraint file")

	input := writeInputFiles(t)
	restraints := filepath.Join(t.TempDir(), "system.restrained")
	require.NoError(t, os.WriteFile(restraints, []byte("ATOM\n"), 0o644))
	input.Restraints = restraints

	require.NoError(t, eng.Prepare(context.Background(), proc, p, input))

	_, err = os.Stat(proc.InputPath("namd.restrained"))
	require.NoError(t, err)
}
