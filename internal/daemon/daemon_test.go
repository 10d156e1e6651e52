package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/docktile/internal/ipc"
	"github.com/1broseidon/docktile/internal/layout"
	"github.com/1broseidon/docktile/internal/persist"
)

type running struct {
	client *ipc.Client
	cancel context.CancelFunc
	done   chan error
}

func startDaemon(t *testing.T, configPath, socket string, watch bool) running {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan *Session, 1)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			ConfigPath: configPath,
			SocketPath: socket,
			Watch:      watch,
			Logger:     quietLogger(),
			Ready:      func(s *Session) { ready <- s },
		})
	}()
	select {
	case <-ready:
		return running{client: ipc.NewClientAt(socket), cancel: cancel, done: done}
	case err := <-done:
		cancel()
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not become ready")
	}
	return running{}
}

func (r running) stop(t *testing.T) {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		if err != nil {
			t.Fatalf("daemon: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func groupHolding(n *layout.NodeSnapshot, viewID string) string {
	if n == nil {
		return ""
	}
	for _, v := range n.Views {
		if v.ID == viewID {
			return n.ID
		}
	}
	for _, c := range n.Children {
		if id := groupHolding(c, viewID); id != "" {
			return id
		}
	}
	return ""
}

func TestRunServesIPCAndPersists(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "layouts")
	cfgPath := writeConfig(t, dir, "storage:\n  backend: file\n  path: "+store+"\n  codec: cbor\n")
	socket := filepath.Join(dir, "d.sock")

	d := startDaemon(t, cfgPath, socket, false)
	st, err := d.client.GetStatus()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.DaemonRunning || st.Source != string(persist.SourceDefault) || st.Groups != 3 {
		t.Fatalf("status = %+v", st)
	}

	if err := d.client.OpenView("search", ""); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := d.client.CloseTab("ghost"); !errors.Is(err, ipc.ErrNotApplied) {
		t.Fatalf("close ghost err = %v, want ErrNotApplied", err)
	}
	if err := d.client.OpenView("ghost", ""); err == nil || errors.Is(err, ipc.ErrNotApplied) {
		t.Fatalf("open ghost err = %v, want daemon error", err)
	}

	lay, err := d.client.GetLayout(0, 0)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if lay.Canvas != ipc.DefaultCanvas || len(lay.Boxes) != 3 {
		t.Fatalf("layout = %+v", lay)
	}
	viewer := groupHolding(lay.Snapshot.Root, "viewer")
	res, err := d.client.Drop(ipc.DropPayload{ViewID: "queue", GroupID: viewer, X: lay.Boxes[viewer].X + 1, Y: lay.Boxes[viewer].Y + 1})
	if err != nil || !res.Applied {
		t.Fatalf("drop = %+v, %v", res, err)
	}
	items, err := d.client.Menu(ipc.MenuLayout, "")
	if err != nil || len(items) != 2 {
		t.Fatalf("menu = %+v, %v", items, err)
	}
	d.stop(t)

	fs, err := persist.NewFileStore(store)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	snap, found, err := persist.NewAdapter(fs, persist.CBORCodec{}, persist.DefaultKey).Load(context.Background())
	if err != nil || !found {
		t.Fatalf("stored layout = %v, %v", found, err)
	}
	ws, _, err := layout.Restore(snap, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ws.GroupOf("search") == nil || ws.GroupOf("queue") == nil {
		t.Fatal("stored layout lost the opened views")
	}

	d = startDaemon(t, cfgPath, socket, false)
	defer d.stop(t)
	st, err = d.client.GetStatus()
	if err != nil || st.Source != string(persist.SourceStored) || st.Groups != 4 {
		t.Fatalf("restarted status = %+v, %v", st, err)
	}
}

func TestRunHotReloadsTunables(t *testing.T) {
	dir := t.TempDir()
	body := "storage:\n  backend: memory\ndrag:\n  edge_band: 0.2\n"
	cfgPath := writeConfig(t, dir, body)
	d := startDaemon(t, cfgPath, filepath.Join(dir, "d.sock"), true)
	defer d.stop(t)

	writeConfig(t, dir, "storage:\n  backend: memory\ndrag:\n  edge_band: 0.35\n")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, err := d.client.GetStatus()
		if err == nil && st.EdgeBand == 0.35 {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("edge band was not hot reloaded")
}

func TestRunReloadCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "storage:\n  backend: memory\n")
	d := startDaemon(t, cfgPath, filepath.Join(dir, "d.sock"), false)
	defer d.stop(t)

	writeConfig(t, dir, "storage:\n  backend: memory\n  debounce_ms: 5\ndrag:\n  edge_band: 0.1\n")
	if err := d.client.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	st, err := d.client.GetStatus()
	if err != nil || st.EdgeBand != 0.1 {
		t.Fatalf("status = %+v, %v", st, err)
	}

	writeConfig(t, dir, "log_level: loud\n")
	if err := d.client.Reload(); err == nil {
		t.Fatal("expected reload of an invalid config to fail")
	}
}

func TestRunFailsOnBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "bogus: true\n")
	err := Run(context.Background(), Options{ConfigPath: cfgPath, SocketPath: filepath.Join(dir, "d.sock"), Logger: quietLogger()})
	if err == nil {
		t.Fatal("expected error")
	}
}
