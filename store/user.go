package store

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Demo-grade credentials, not a security boundary.
const (
	adminPhone = "7703862878"
	adminPIN   = "709102"

	fallbackPIN = "1234"
)

// TrialPeriod is how long a new signup can scan before subscribing.
const TrialPeriod = 7 * 24 * time.Hour

var (
	ErrNoAccount     = errors.New("no account found with this phone number")
	ErrBadPIN        = errors.New("invalid secure PIN")
	ErrAccountExists = errors.New("account already exists for this phone number")
)

// User is the persisted profile record. SignupDate is milliseconds since the
// epoch, which is what the stored records carry.
type User struct {
	ID               string `json:"id"`
	Phone            string `json:"phone"`
	Name             string `json:"name"`
	IsSubscribed     bool   `json:"isSubscribed"`
	SignupDate       int64  `json:"signupDate"`
	SubscriptionDate int64  `json:"subscriptionDate,omitempty"`
	IsAdmin          bool   `json:"isAdmin"`
}

// Config is the admin-tuned global configuration.
type Config struct {
	ScanFrequency float64 `json:"scanFrequency"`
	AlarmEnabled  bool    `json:"alarmEnabled"`
	MinConfidence int     `json:"minConfidence"`
}

func DefaultConfig() Config {
	return Config{ScanFrequency: 1.5, AlarmEnabled: true, MinConfidence: 90}
}

// TrialExpired reports whether u's trial has lapsed. Admins and subscribers
// never expire.
func TrialExpired(u User, now time.Time) bool {
	if u.IsAdmin || u.IsSubscribed {
		return false
	}
	return now.Sub(time.UnixMilli(u.SignupDate)) > TrialPeriod
}

func (s *Store) Config() Config {
	cfg := DefaultConfig()
	s.get(configKey, &cfg)
	return cfg
}

func (s *Store) SetConfig(cfg Config) error {
	return s.put(configKey, cfg)
}

func (s *Store) CurrentUser() (User, bool) {
	var u User
	if !s.get(currentUserKey, &u) || u.Phone == "" {
		return User{}, false
	}
	return u, true
}

func (s *Store) SetCurrentUser(u User) error {
	return s.put(currentUserKey, u)
}

// ClearCurrentUser logs out; the per-phone record stays.
func (s *Store) ClearCurrentUser() {
	s.remove(currentUserKey)
}

// Signup creates a new user record and signs them in. The trial clock starts
// at signup time.
func (s *Store) Signup(name, phone string) (User, error) {
	if phone == "" {
		return User{}, fmt.Errorf("phone number required")
	}
	var existing User
	if s.get(userKeyPrefix+phone, &existing) && existing.Phone != "" {
		return User{}, ErrAccountExists
	}
	u := User{
		ID:         newID(),
		Phone:      phone,
		Name:       name,
		SignupDate: time.Now().UnixMilli(),
	}
	if err := s.put(userKeyPrefix+phone, u); err != nil {
		return User{}, err
	}
	if err := s.put(currentUserKey, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login authenticates by phone and PIN. The PIN is the last four digits of
// the phone number, or the fallback PIN.
func (s *Store) Login(phone, pin string) (User, error) {
	if phone == adminPhone && pin == adminPIN {
		u := User{
			ID:           "admin-001",
			Phone:        adminPhone,
			Name:         "Super Admin",
			IsSubscribed: true,
			SignupDate:   time.Now().UnixMilli(),
			IsAdmin:      true,
		}
		if err := s.put(currentUserKey, u); err != nil {
			return User{}, err
		}
		return u, nil
	}

	var u User
	if !s.get(userKeyPrefix+phone, &u) || u.Phone == "" {
		return User{}, ErrNoAccount
	}
	if pin != fallbackPIN && pin != lastFour(u.Phone) {
		return User{}, ErrBadPIN
	}
	if err := s.put(currentUserKey, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Subscribe marks the user as subscribed and persists both records.
func (s *Store) Subscribe(phone string) (User, error) {
	var u User
	if !s.get(userKeyPrefix+phone, &u) || u.Phone == "" {
		return User{}, ErrNoAccount
	}
	u.IsSubscribed = true
	u.SubscriptionDate = time.Now().UnixMilli()
	if err := s.put(userKeyPrefix+phone, u); err != nil {
		return User{}, err
	}
	if cur, ok := s.CurrentUser(); ok && cur.Phone == phone {
		if err := s.put(currentUserKey, u); err != nil {
			return User{}, err
		}
	}
	return u, nil
}

// Users returns all stored profiles, newest signup first. Corrupt records are
// skipped.
func (s *Store) Users() []User {
	var users []User
	for _, key := range s.keys(userKeyPrefix) {
		var u User
		if s.get(key, &u) && u.Phone != "" {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].SignupDate > users[j].SignupDate
	})
	return users
}

func lastFour(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return phone[len(phone)-4:]
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func newID() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}
