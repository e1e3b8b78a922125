package diskimage

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

var errExit = errors.New("exit status 1")

const attachOutput = "/dev/disk4          \tGUID_partition_scheme          \t\n" +
	"/dev/disk4s1        \tApple_HFS                      \t/Volumes/My App\n"

// TestTool_Create checks the create command line, including the -size argument.
func TestTool_Create(t *testing.T) {
	t.Parallel()

	runner := new(fakeRunner)
	tool := NewTool(runner)

	err := tool.Create(context.Background(), CreateRequest{
		Source:         "/src/MyApp.app",
		VolumeName:     "My App",
		Filesystem:     DefaultFilesystem,
		FilesystemArgs: DefaultFilesystemArgs,
		CapacityMB:     850,
		Path:           "/out/MyApp_temp.dmg",
	})
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	require.Equal(t, "hdiutil", runner.calls[0].name)
	require.Equal(t, []string{
		"create",
		"-srcfolder", "/src/MyApp.app",
		"-volname", "My App",
		"-fs", "HFS+",
		"-fsargs", "-c c=64,a=16,e=16",
		"-format", "UDRW",
		"-size", "850m",
		"/out/MyApp_temp.dmg",
	}, runner.calls[0].args)
}

// TestTool_CreateWithoutFilesystemArgs omits -fsargs when empty.
func TestTool_CreateWithoutFilesystemArgs(t *testing.T) {
	t.Parallel()

	runner := new(fakeRunner)
	tool := NewTool(runner, WithBinary("/usr/bin/hdiutil"))

	require.NoError(t, tool.Create(context.Background(), CreateRequest{
		Source:     "/src",
		VolumeName: "X",
		Filesystem: "APFS",
		CapacityMB: 51,
		Path:       "/out/x.dmg",
	}))
	require.Equal(t,
		"/usr/bin/hdiutil create -srcfolder /src -volname X -fs APFS -format UDRW -size 51m /out/x.dmg",
		runner.commandLine(0))
}

// TestTool_Attach parses the mount point from the attach table.
func TestTool_Attach(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte(attachOutput)}
	tool := NewTool(runner)

	mountPoint, err := tool.Attach(context.Background(), "/out/MyApp_temp.dmg")
	require.NoError(t, err)
	require.Equal(t, "/Volumes/My App", mountPoint)
	require.Equal(t, "hdiutil attach /out/MyApp_temp.dmg -readwrite -noverify -noautoopen", runner.commandLine(0))
}

// TestTool_AttachParseFailure is fatal when no mount point is printed.
func TestTool_AttachParseFailure(t *testing.T) {
	t.Parallel()

	tool := NewTool(&fakeRunner{output: []byte("/dev/disk4\tGUID_partition_scheme\t\n")})

	_, err := tool.Attach(context.Background(), "/out/x.dmg")
	require.ErrorIs(t, err, ErrMountPointNotFound)
}

// TestTool_AttachToolFailure propagates a failing attach.
func TestTool_AttachToolFailure(t *testing.T) {
	t.Parallel()

	tool := NewTool(&fakeRunner{errs: map[string]error{"attach": errExit}})

	_, err := tool.Attach(context.Background(), "/out/x.dmg")
	require.ErrorIs(t, err, errExit)
}

// TestTool_DetachAndConvert checks the remaining command lines.
func TestTool_DetachAndConvert(t *testing.T) {
	t.Parallel()

	runner := new(fakeRunner)
	tool := NewTool(runner)

	require.NoError(t, tool.Detach(context.Background(), "/Volumes/My App"))
	require.NoError(t, tool.Convert(context.Background(), ConvertRequest{
		Source: "/out/MyApp_temp.dmg",
		Path:   "/out/MyApp.dmg",
	}))

	require.Equal(t, []string{"detach", "/Volumes/My App", "-quiet"}, runner.calls[0].args)
	require.Equal(t, []string{
		"convert", "/out/MyApp_temp.dmg",
		"-format", "UDZO",
		"-imagekey", "zlib-level=9",
		"-o", "/out/MyApp.dmg",
	}, runner.calls[1].args)
}

// TestTool_ConvertFailure wraps the tool error.
func TestTool_ConvertFailure(t *testing.T) {
	t.Parallel()

	tool := NewTool(&fakeRunner{errs: map[string]error{"convert": errExit}})

	err := tool.Convert(context.Background(), ConvertRequest{Source: "a", Path: "b", CompressionLevel: 5})
	require.ErrorIs(t, err, errExit)
}

// TestExecRunner_Failure reports a non-zero exit as a ToolError with stderr captured.
func TestExecRunner_Failure(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	runner := &ExecRunner{Stdout: new(nopWriter), Stderr: new(nopWriter)}

	_, err := runner.Output(context.Background(), "sh", "-c", "echo boom >&2; exit 3")

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	require.Equal(t, "sh", toolErr.Command)
	require.Equal(t, "boom", toolErr.Stderr)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 3, exitErr.ExitCode())

	out, err := runner.Output(context.Background(), "sh", "-c", "printf ok")
	require.NoError(t, err)
	require.Equal(t, "ok", string(out))
}

// nopWriter discards everything written to it.
type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) {
	return len(p), nil
}
