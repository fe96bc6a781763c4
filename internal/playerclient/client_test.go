package playerclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

func TestClient_GetInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/info" {
			t.Errorf("Expected path /api/v2/info, got %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			t.Errorf("Expected basic auth admin/secret, got %s/%s", user, pass)
		}
		fmt.Fprint(w, `{"anthias_version":"v0.19.4","device_model":"pi5","mac_address":"aa:bb:cc:dd:ee:ff"}`)
	}))
	defer server.Close()

	c := New("lobby", server.URL, WithBasicAuth("admin", "secret"))
	info, err := c.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.AnthiasVersion != "v0.19.4" || info.MacAddress != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("Unexpected info: %+v", info)
	}
}

func TestClient_HTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Slot not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	_, err := c.GetScheduleSlots(context.Background())

	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Expected DeviceError, got %v", err)
	}
	if devErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", devErr.StatusCode)
	}
	want := fmt.Sprintf("Player lobby at %s/api/v2/schedule/slots returned 404", server.URL)
	if devErr.Error() != want {
		t.Errorf("Expected %q, got %q", want, devErr.Error())
	}
}

func TestClient_RetriesOn503(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	if _, err := c.GetAssets(context.Background()); err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestClient_RetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	_, err := c.GetAssets(context.Background())

	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Expected DeviceError, got %v", err)
	}
	if devErr.Kind != ErrKindRetriesExhausted {
		t.Errorf("Expected retries-exhausted kind, got %d", devErr.Kind)
	}
	want := fmt.Sprintf("Player lobby at %s/api/v2/assets returned repeated errors", server.URL)
	if devErr.Error() != want {
		t.Errorf("Expected %q, got %q", want, devErr.Error())
	}
}

func TestClient_NoRetryOn404(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	_, _ = c.GetAssets(context.Background())
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 attempt for 404, got %d", got)
	}
}

func TestClient_ConnectionError(t *testing.T) {
	// Point at a closed port.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New("lobby", url)
	_, err := c.GetInfo(context.Background())

	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("Expected DeviceError, got %v", err)
	}
	if devErr.Kind != ErrKindConnect {
		t.Errorf("Expected connect kind, got %d", devErr.Kind)
	}
	want := fmt.Sprintf("Cannot connect to player lobby at %s/api/v2/info", url)
	if devErr.Error() != want {
		t.Errorf("Expected %q, got %q", want, devErr.Error())
	}
}

func TestClient_Viewlog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("since"); got != "2026-08-01T00:00:00Z" {
			t.Errorf("Expected since param, got %q", got)
		}
		fmt.Fprint(w, `[{"asset_id":"a1","asset_name":"promo.mp4","mimetype":"video","event":"started","timestamp":"2026-08-01T10:00:00Z"}]`)
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	entries, err := c.GetViewlog(context.Background(), "2026-08-01T00:00:00Z")
	if err != nil {
		t.Fatalf("GetViewlog failed: %v", err)
	}
	if len(entries) != 1 || entries[0].AssetName != "promo.mp4" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestClient_CreateAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/assets" {
			t.Errorf("Expected POST /api/v2/assets, got %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		var data map[string]any
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if data["name"] != "promo" || data["mimetype"] != "video" {
			t.Errorf("Unexpected body: %v", data)
		}
		fmt.Fprint(w, `{"asset_id":"a1","name":"promo","mimetype":"video"}`)
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	asset, err := c.CreateAsset(context.Background(), map[string]any{
		"name": "promo", "uri": "/data/promo.mp4", "mimetype": "video",
	})
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	if asset.AssetID != "a1" {
		t.Errorf("Expected asset a1, got %+v", asset)
	}
}

func TestClient_UpdateAndDeleteAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPatch && r.URL.Path == "/api/v2/assets/a1":
			fmt.Fprint(w, `{"asset_id":"a1","name":"renamed"}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v2/assets/a1":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	asset, err := c.UpdateAsset(context.Background(), "a1", map[string]any{"name": "renamed"})
	if err != nil {
		t.Fatalf("UpdateAsset failed: %v", err)
	}
	if asset.Name != "renamed" {
		t.Errorf("Expected renamed asset, got %+v", asset)
	}
	if err := c.DeleteAsset(context.Background(), "a1"); err != nil {
		t.Fatalf("DeleteAsset failed: %v", err)
	}
}

func TestClient_SetPlaylistOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/assets/order" {
			t.Errorf("Expected POST /api/v2/assets/order, got %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("ids"); got != "a1,a2,a3" {
			t.Errorf("Expected ids a1,a2,a3, got %q", got)
		}
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	if err := c.SetPlaylistOrder(context.Background(), "a1,a2,a3"); err != nil {
		t.Fatalf("SetPlaylistOrder failed: %v", err)
	}
}

func TestClient_UploadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/file_asset" {
			t.Errorf("Expected POST /api/v2/file_asset, got %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart: %v", err)
		}
		f, _, err := r.FormFile("file_upload")
		if err != nil {
			t.Fatalf("Expected file_upload part: %v", err)
		}
		f.Close()
		fmt.Fprint(w, `{"uri":"/data/screenly_assets/x.png","ext":".png"}`)
	}))
	defer server.Close()

	tmp, err := os.CreateTemp(t.TempDir(), "upload-*.png")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmp.WriteString("not really a png")
	tmp.Close()

	c := New("lobby", server.URL)
	uri, err := c.UploadFile(context.Background(), tmp.Name())
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if uri != "/data/screenly_assets/x.png" {
		t.Errorf("Expected player-side uri, got %q", uri)
	}
}

func TestClient_RebootShutdownBackup(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/v2/backup" {
			fmt.Fprint(w, `"anthias-backup-2026-08-29.tar.gz"`)
		}
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	if err := c.Reboot(context.Background()); err != nil {
		t.Fatalf("Reboot failed: %v", err)
	}
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	name, err := c.CreateBackup(context.Background())
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if name != "anthias-backup-2026-08-29.tar.gz" {
		t.Errorf("Unexpected backup name %q", name)
	}
	want := []string{"/api/v2/reboot", "/api/v2/shutdown", "/api/v2/backup"}
	if len(paths) != 3 || paths[0] != want[0] || paths[1] != want[1] || paths[2] != want[2] {
		t.Errorf("Expected paths %v, got %v", want, paths)
	}
}

func TestClient_ScheduleSlotLifecycle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		switch key {
		case "POST /api/v2/schedule/slots":
			fmt.Fprint(w, `{"id":7,"name":"mornings","priority":1}`)
		case "PUT /api/v2/schedule/slots/7":
			fmt.Fprint(w, `{"id":7,"name":"mornings","priority":5}`)
		case "POST /api/v2/schedule/slots/7/items":
			fmt.Fprint(w, `{"id":31,"asset_id":"a1","position":0}`)
		case "GET /api/v2/schedule/slots/7/items":
			fmt.Fprint(w, `[{"id":31,"asset_id":"a1","position":0}]`)
		case "DELETE /api/v2/schedule/slots/7/items/31":
			w.WriteHeader(http.StatusNoContent)
		case "DELETE /api/v2/schedule/slots/7":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("Unexpected request %s", key)
		}
	}))
	defer server.Close()

	c := New("lobby", server.URL)
	ctx := context.Background()

	slot, err := c.CreateScheduleSlot(ctx, map[string]any{"name": "mornings", "priority": 1})
	if err != nil {
		t.Fatalf("CreateScheduleSlot failed: %v", err)
	}
	if slot.ID != 7 {
		t.Fatalf("Expected slot 7, got %+v", slot)
	}

	slot, err = c.UpdateScheduleSlot(ctx, 7, map[string]any{"priority": 5})
	if err != nil {
		t.Fatalf("UpdateScheduleSlot failed: %v", err)
	}
	if slot.Priority != 5 {
		t.Errorf("Expected priority 5, got %d", slot.Priority)
	}

	item, err := c.AddSlotItem(ctx, 7, map[string]any{"asset_id": "a1"})
	if err != nil {
		t.Fatalf("AddSlotItem failed: %v", err)
	}
	if item.ID != 31 || item.AssetID != "a1" {
		t.Errorf("Unexpected item: %+v", item)
	}

	items, err := c.GetSlotItems(ctx, 7)
	if err != nil {
		t.Fatalf("GetSlotItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(items))
	}

	if err := c.RemoveSlotItem(ctx, 7, 31); err != nil {
		t.Fatalf("RemoveSlotItem failed: %v", err)
	}
	if err := c.DeleteScheduleSlot(ctx, 7); err != nil {
		t.Fatalf("DeleteScheduleSlot failed: %v", err)
	}
}
