package sdk_test

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/internal/server"
	"github.com/celerix-dev/celerix-abtest/pkg/sdk"
)

// serve accepts connections on a random port and hands them to a router.
func serve(t *testing.T, store *engine.MemStore) string {
	t.Helper()
	router := server.NewRouter(store)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				router.HandleConnection(conn)
			}()
		}
	}()
	return listener.Addr().String()
}

func TestClient_Integration(t *testing.T) {
	store := engine.NewMemStore(nil, nil)
	addr := serve(t, store)

	client, err := sdk.Connect(addr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if err := client.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	if err := client.Set("p1", "uid", "v1 with spaces"); err != nil {
		t.Fatalf("Client Set failed: %v", err)
	}

	val, err := client.Get("p1", "uid")
	if err != nil || val != "v1 with spaces" {
		t.Errorf("Client Get failed: %v, %v", val, err)
	}

	// The remote store sees the write.
	if got, _ := store.Get("p1", "uid"); got != "v1 with spaces" {
		t.Errorf("Expected write to reach the store, got %q", got)
	}

	// Profile scope
	scope := client.Profile("p1")
	if err := scope.Set("ab_test_variant", "b"); err != nil {
		t.Fatalf("Scope Set failed: %v", err)
	}
	if v, _ := scope.Get("ab_test_variant"); v != "b" {
		t.Errorf("Scope Get failed: %v", v)
	}

	profiles, err := client.GetProfiles()
	if err != nil || len(profiles) != 1 || profiles[0] != "p1" {
		t.Errorf("GetProfiles: %v, %v", profiles, err)
	}

	data, err := client.GetProfile("p1")
	if err != nil || len(data) != 2 {
		t.Errorf("GetProfile: %v, %v", data, err)
	}

	if err := client.Delete("p1", "uid"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestClient_MapsRemoteErrors(t *testing.T) {
	addr := serve(t, engine.NewMemStore(nil, nil))

	client, err := sdk.Connect(addr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	_, err = client.Get("nobody", "uid")
	if !errors.Is(err, sdk.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
	if !errors.Is(err, sdk.ErrNotFound) {
		t.Errorf("Expected ErrNotFound to match, got %v", err)
	}

	client.Set("p1", "other", "x")
	_, err = client.Get("p1", "uid")
	if !errors.Is(err, sdk.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}

	if err := client.Set("bad/profile", "uid", "x"); !errors.Is(err, engine.ErrInvalidProfile) {
		t.Errorf("Expected ErrInvalidProfile, got %v", err)
	}
}

func TestClient_RetryLogic(t *testing.T) {
	// Once the server is gone the client must fail cleanly, not panic.
	store := engine.NewMemStore(nil, nil)
	router := server.NewRouter(store)

	listener, _ := net.Listen("tcp", "127.0.0.1:0")
	addr := listener.Addr().String()

	go func() {
		conn, _ := listener.Accept()
		if conn != nil {
			router.HandleConnection(conn)
			conn.Close()
		}
	}()

	client, err := sdk.Connect(addr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	listener.Close()
	client.Set("p1", "k1", "v1")

	client.Close()
	if _, err := client.Get("p1", "k1"); err == nil {
		t.Error("Expected an error once the server is unreachable")
	}
}

func TestNew_FallsBackToEmbedded(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	// Nothing listens on this port; New must fall back to the embedded engine.
	listener, _ := net.Listen("tcp", "127.0.0.1:0")
	deadAddr := listener.Addr().String()
	listener.Close()

	store, err := sdk.New(deadAddr, dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := store.(*engine.MemStore); !ok {
		t.Fatalf("Expected embedded *engine.MemStore, got %T", store)
	}

	if err := store.Set("p1", "uid", "u-1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	store.(sdk.Waiter).Wait()

	reopened, err := sdk.New("", dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if v, _ := reopened.Get("p1", "uid"); v != "u-1" {
		t.Errorf("Expected persisted uid u-1, got %q", v)
	}
}

func TestNew_PrefersRemote(t *testing.T) {
	addr := serve(t, engine.NewMemStore(nil, nil))

	store, err := sdk.New(addr, t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	client, ok := store.(*sdk.Client)
	if !ok {
		t.Fatalf("Expected *sdk.Client, got %T", store)
	}
	client.Close()
}
