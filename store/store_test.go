package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestConfigDefaultsWhenMissing(t *testing.T) {
	s := newTestStore(t)
	cfg := s.Config()
	if cfg != DefaultConfig() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := Config{ScanFrequency: 2.0, AlarmEnabled: false, MinConfidence: 75}
	if err := s.SetConfig(want); err != nil {
		t.Fatal(err)
	}
	if got := s.Config(); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMalformedRecordFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "global_app_config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := s.Config(); got != DefaultConfig() {
		t.Errorf("corrupt config: got %+v, want defaults", got)
	}
}

func TestSignupAndLogin(t *testing.T) {
	s := newTestStore(t)

	u, err := s.Signup("Ravi", "9876543210")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.SignupDate == 0 {
		t.Errorf("incomplete user record: %+v", u)
	}
	if u.IsSubscribed || u.IsAdmin {
		t.Errorf("new signup should not be subscribed or admin: %+v", u)
	}

	cur, ok := s.CurrentUser()
	if !ok || cur.Phone != "9876543210" {
		t.Fatalf("signup did not sign in: %+v ok=%v", cur, ok)
	}

	s.ClearCurrentUser()
	if _, ok := s.CurrentUser(); ok {
		t.Fatal("still signed in after logout")
	}

	// PIN is last four digits of the phone.
	if _, err := s.Login("9876543210", "3210"); err != nil {
		t.Fatalf("login with phone-derived PIN: %v", err)
	}
	// Fallback PIN also accepted.
	if _, err := s.Login("9876543210", "1234"); err != nil {
		t.Fatalf("login with fallback PIN: %v", err)
	}
	if _, err := s.Login("9876543210", "0000"); !errors.Is(err, ErrBadPIN) {
		t.Fatalf("bad PIN: got %v, want ErrBadPIN", err)
	}
	if _, err := s.Login("1112223334", "1234"); !errors.Is(err, ErrNoAccount) {
		t.Fatalf("unknown phone: got %v, want ErrNoAccount", err)
	}
}

func TestSignupDuplicatePhone(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Signup("A", "9876543210"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Signup("B", "9876543210"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("got %v, want ErrAccountExists", err)
	}
}

func TestAdminLogin(t *testing.T) {
	s := newTestStore(t)
	u, err := s.Login("7703862878", "709102")
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsAdmin || !u.IsSubscribed {
		t.Errorf("admin user: %+v", u)
	}
	if _, err := s.Login("7703862878", "999999"); err == nil {
		t.Error("admin phone with wrong PIN accepted")
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Signup("Ravi", "9876543210"); err != nil {
		t.Fatal(err)
	}
	u, err := s.Subscribe("9876543210")
	if err != nil {
		t.Fatal(err)
	}
	if !u.IsSubscribed || u.SubscriptionDate == 0 {
		t.Errorf("subscribe: %+v", u)
	}
	// The signed-in copy is updated too.
	cur, _ := s.CurrentUser()
	if !cur.IsSubscribed {
		t.Error("current_user record not updated")
	}
}

func TestTrialExpired(t *testing.T) {
	now := time.Now()
	fresh := User{SignupDate: now.Add(-time.Hour).UnixMilli()}
	old := User{SignupDate: now.Add(-8 * 24 * time.Hour).UnixMilli()}

	if TrialExpired(fresh, now) {
		t.Error("fresh signup reported expired")
	}
	if !TrialExpired(old, now) {
		t.Error("8-day-old trial not expired")
	}
	old.IsSubscribed = true
	if TrialExpired(old, now) {
		t.Error("subscriber reported expired")
	}
	old.IsSubscribed = false
	old.IsAdmin = true
	if TrialExpired(old, now) {
		t.Error("admin reported expired")
	}
}

func TestUsersSortedNewestFirst(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Signup("A", "1111111111")
	b, _ := s.Signup("B", "2222222222")

	// Force distinct signup times.
	a.SignupDate = time.Now().Add(-time.Hour).UnixMilli()
	if err := s.put(userKeyPrefix+a.Phone, a); err != nil {
		t.Fatal(err)
	}
	_ = b

	users := s.Users()
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
	if users[0].Phone != "2222222222" {
		t.Errorf("order: got %s first, want newest signup", users[0].Phone)
	}
}

func TestUsersSkipsCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Signup("A", "1111111111"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "user_2222222222.json"), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Users()); got != 1 {
		t.Errorf("got %d users, want 1 (corrupt record skipped)", got)
	}
}
