package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openTestDB(t *testing.T) DB {
	t.Helper()
	d := &SQLite{Path: filepath.Join(t.TempDir(), "test.db")}
	require.NoError(t, d.Connect())
	require.NoError(t, d.EnsureSchema())
	t.Cleanup(d.Close)
	return d
}

func newTestUser(t *testing.T, d DB, email string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter42x"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &User{Name: "Test User", Email: email, Password: hash}
	id, err := d.InsertUser(u)
	require.NoError(t, err)
	u.ID = id
	return u
}

func newTestCustomer(t *testing.T, d DB, ownerID int, name string) *Customer {
	t.Helper()
	id, err := d.InsertCustomer(&Customer{Name: name, OwnerID: ownerID})
	require.NoError(t, err)
	c, err := d.GetCustomer(id, ownerID)
	require.NoError(t, err)
	return c
}

func newTestSite(t *testing.T, d DB, customerID, ownerID int, name string) *Site {
	t.Helper()
	id, err := d.InsertSite(&Site{
		CustomerID: customerID,
		Name:       name,
		Latitude:   39.72,
		Longitude:  -121.82,
	}, ownerID)
	require.NoError(t, err)
	s, err := d.GetSite(id, ownerID)
	require.NoError(t, err)
	return s
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, d.EnsureSchema())
	require.NoError(t, d.EnsureSchema())
}

// Timestamps are bound as parameters, never generated server-side, so every
// row carries the one canonical format fitting the VARCHAR(30) columns.
func TestCreatedAtCanonicalFormat(t *testing.T) {
	d := openTestDB(t)
	u := newTestUser(t, d, "stamp@example.com")
	c := newTestCustomer(t, d, u.ID, "Stamped")
	s := newTestSite(t, d, c.ID, u.ID, "Well T")
	fresh, err := d.GetUserByID(u.ID)
	require.NoError(t, err)

	for _, created := range []string{fresh.CreatedAt, c.CreatedAt, s.CreatedAt} {
		require.Len(t, created, 19)
		_, err := time.Parse("2006-01-02 15:04:05", created)
		require.NoError(t, err)
	}
}

func TestUserLifecycle(t *testing.T) {
	d := openTestDB(t)

	count, err := d.CountUsers()
	require.NoError(t, err)
	require.Equal(t, 0, count)

	u := newTestUser(t, d, "owner@example.com")

	exists, err := d.ExistsUserByEmail("owner@example.com")
	require.NoError(t, err)
	require.True(t, exists)

	got, err := d.GetUserByEmail("owner@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "Test User", got.Name)

	byID, err := d.GetUserByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", byID.Email)

	_, err = d.GetUserByEmail("nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAuthenticateUser(t *testing.T) {
	d := openTestDB(t)
	u := newTestUser(t, d, "auth@example.com")

	got, err := d.AuthenticateUser("auth@example.com", "hunter42x")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = d.AuthenticateUser("auth@example.com", "wrong-password")
	require.Error(t, err)

	_, err = d.AuthenticateUser("ghost@example.com", "hunter42x")
	require.Error(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	d := openTestDB(t)
	u := newTestUser(t, d, "session@example.com")

	require.NoError(t, d.SaveSession("tok-valid", u.ID, "2999-01-01 00:00:00"))
	got, err := d.GetSessionUser("tok-valid")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	// Expired sessions never resolve.
	require.NoError(t, d.SaveSession("tok-expired", u.ID, "2000-01-01 00:00:00"))
	_, err = d.GetSessionUser("tok-expired")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, d.PurgeExpiredSessions())
	_, err = d.GetSessionUser("tok-valid")
	require.NoError(t, err)

	require.NoError(t, d.DeleteSession("tok-valid"))
	_, err = d.GetSessionUser("tok-valid")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerOwnershipScoping(t *testing.T) {
	d := openTestDB(t)
	owner := newTestUser(t, d, "a@example.com")
	other := newTestUser(t, d, "b@example.com")
	c := newTestCustomer(t, d, owner.ID, "Riverside Farms")

	_, err := d.GetCustomer(c.ID, other.ID)
	require.ErrorIs(t, err, ErrNotFound)

	list, err := d.ListCustomers(other.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	require.ErrorIs(t, d.SoftDeleteCustomer(c.ID, other.ID), ErrNotFound)
	require.ErrorIs(t, d.UpdateCustomerName(c.ID, other.ID, "x"), ErrNotFound)
}

func TestCustomerSoftDeleteHidesSites(t *testing.T) {
	d := openTestDB(t)
	owner := newTestUser(t, d, "owner@example.com")
	c := newTestCustomer(t, d, owner.ID, "Orchard Co")
	s := newTestSite(t, d, c.ID, owner.ID, "North Well")

	require.NoError(t, d.SoftDeleteCustomer(c.ID, owner.ID))

	_, err := d.GetCustomer(c.ID, owner.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// The site row survives but becomes invisible everywhere.
	_, err = d.GetSite(s.ID, owner.ID)
	require.ErrorIs(t, err, ErrNotFound)
	all, err := d.ListAllSites(owner.ID, "")
	require.NoError(t, err)
	require.Empty(t, all)

	// Inserting under a deleted customer is refused.
	_, err = d.InsertSite(&Site{CustomerID: c.ID, Name: "New"}, owner.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Restore brings the site back untouched.
	require.NoError(t, d.RestoreCustomer(c.ID, owner.ID))
	back, err := d.GetSite(s.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "North Well", back.Name)
	require.InDelta(t, 39.72, back.Latitude, 0.0001)
}

func TestDeletedListings(t *testing.T) {
	d := openTestDB(t)
	owner := newTestUser(t, d, "owner@example.com")
	c := newTestCustomer(t, d, owner.ID, "Vineyard LLC")
	s := newTestSite(t, d, c.ID, owner.ID, "Block 4 Pump")

	require.NoError(t, d.SoftDeleteSite(s.ID, owner.ID))
	deleted, err := d.ListDeletedSites(owner.ID)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	require.Equal(t, "Block 4 Pump", deleted[0].Name)
	require.Equal(t, "Vineyard LLC", deleted[0].CustomerName)

	require.NoError(t, d.SoftDeleteCustomer(c.ID, owner.ID))
	// A site whose customer is deleted is not separately restorable, so the
	// deleted-sites list hides it.
	deleted, err = d.ListDeletedSites(owner.ID)
	require.NoError(t, err)
	require.Empty(t, deleted)

	customers, err := d.ListDeletedCustomers(owner.ID)
	require.NoError(t, err)
	require.Len(t, customers, 1)
}

func TestSiteSearchAndUpdate(t *testing.T) {
	d := openTestDB(t)
	owner := newTestUser(t, d, "owner@example.com")
	c := newTestCustomer(t, d, owner.ID, "Hill Ranch")
	s := newTestSite(t, d, c.ID, owner.ID, "East Ag Well")
	s.JobNumber = "J-1042"
	s.Address = "4200 Ridge Rd"
	s.Category = "agricultural"
	s.Status = "active"
	require.NoError(t, d.UpdateSite(s, owner.ID))

	byName, err := d.ListAllSites(owner.ID, "east")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "Hill Ranch", byName[0].CustomerName)
	require.Equal(t, "J-1042", byName[0].JobNumber)

	byJob, err := d.ListAllSites(owner.ID, "j-10")
	require.NoError(t, err)
	require.Len(t, byJob, 1)

	none, err := d.ListAllSites(owner.ID, "zzz")
	require.NoError(t, err)
	require.Empty(t, none)

	exists, err := d.ExistsSiteName(c.ID, "East Ag Well")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestEntryTimelineOrdering(t *testing.T) {
	d := openTestDB(t)
	owner := newTestUser(t, d, "owner@example.com")
	c := newTestCustomer(t, d, owner.ID, "Creek Dairy")
	s := newTestSite(t, d, c.ID, owner.ID, "Main Well")

	for _, date := range []string{"2026-03-01", "2026-05-20", "2026-01-15"} {
		_, err := d.InsertEntry(&Entry{
			SiteID:    s.ID,
			UserID:    owner.ID,
			EntryDate: date,
			Kind:      "general",
			Note:      "note " + date,
		}, owner.ID)
		require.NoError(t, err)
	}

	entries, err := d.ListEntries(s.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Newest date first.
	require.Equal(t, "2026-05-20", entries[0].EntryDate)
	require.Equal(t, "2026-03-01", entries[1].EntryDate)
	require.Equal(t, "2026-01-15", entries[2].EntryDate)
}

func TestEntrySoftDeleteAndUpdate(t *testing.T) {
	d := openTestDB(t)
	owner := newTestUser(t, d, "owner@example.com")
	c := newTestCustomer(t, d, owner.ID, "Coastal Growers")
	s := newTestSite(t, d, c.ID, owner.ID, "Well 7")

	id, err := d.InsertEntry(&Entry{
		SiteID: s.ID, UserID: owner.ID,
		EntryDate: "2026-04-10", Kind: "pump_test", Note: "baseline",
	}, owner.ID)
	require.NoError(t, err)

	e, err := d.GetEntry(id, owner.ID)
	require.NoError(t, err)
	e.Note = "baseline rerun"
	e.Kind = "well_test"
	require.NoError(t, d.UpdateEntry(e, owner.ID))

	got, err := d.GetEntry(id, owner.ID)
	require.NoError(t, err)
	require.Equal(t, "baseline rerun", got.Note)
	require.Equal(t, "well_test", got.Kind)

	require.NoError(t, d.SoftDeleteEntry(id, owner.ID))
	_, err = d.GetEntry(id, owner.ID)
	require.ErrorIs(t, err, ErrNotFound)
	entries, err := d.ListEntries(s.ID, owner.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestAttachments(t *testing.T) {
	d := openTestDB(t)
	owner := newTestUser(t, d, "owner@example.com")
	c := newTestCustomer(t, d, owner.ID, "Delta Pumps")
	s := newTestSite(t, d, c.ID, owner.ID, "Test Rig")
	entryID, err := d.InsertEntry(&Entry{
		SiteID: s.ID, UserID: owner.ID, EntryDate: "2026-02-02", Kind: "general",
	}, owner.ID)
	require.NoError(t, err)

	attID, err := d.InsertAttachment(&Attachment{
		EntryID:    entryID,
		StoredName: "abc123.pdf",
		OrigName:   "pump_curve.pdf",
		Mime:       "application/pdf",
	})
	require.NoError(t, err)

	require.NoError(t, d.UpdateAttachmentComment(attID, owner.ID, "latest curve"))
	att, err := d.GetAttachment(attID)
	require.NoError(t, err)
	require.Equal(t, "latest curve", att.Comment)
	require.Equal(t, "pump_curve.pdf", att.OrigName)

	// A stranger cannot comment through the ownership chain.
	stranger := newTestUser(t, d, "stranger@example.com")
	require.ErrorIs(t, d.UpdateAttachmentComment(attID, stranger.ID, "hi"), ErrNotFound)

	list, err := d.ListAttachments(entryID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, d.DeleteAttachment(attID))
	_, err = d.GetAttachment(attID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestShareLinks(t *testing.T) {
	d := openTestDB(t)
	owner := newTestUser(t, d, "owner@example.com")
	c := newTestCustomer(t, d, owner.ID, "Shared Farm")
	s := newTestSite(t, d, c.ID, owner.ID, "Public Well")

	_, err := d.InsertEntry(&Entry{
		SiteID: s.ID, UserID: owner.ID, EntryDate: "2026-06-01", Kind: "general", Note: "day one",
	}, owner.ID)
	require.NoError(t, err)
	_, err = d.InsertEntry(&Entry{
		SiteID: s.ID, UserID: owner.ID, EntryDate: "2026-06-02", Kind: "general", Note: "day two",
	}, owner.ID)
	require.NoError(t, err)

	whole, err := d.GetOrCreateShareLink(s.ID, "", "tok-site")
	require.NoError(t, err)
	require.False(t, whole.ShareDate.Valid)

	// Asking again for the same scope reuses the active link.
	again, err := d.GetOrCreateShareLink(s.ID, "", "tok-unused")
	require.NoError(t, err)
	require.Equal(t, whole.Token, again.Token)

	day, err := d.GetOrCreateShareLink(s.ID, "2026-06-01", "tok-day")
	require.NoError(t, err)
	require.True(t, day.ShareDate.Valid)
	require.Equal(t, "2026-06-01", day.ShareDate.String)
	require.NotEqual(t, whole.Token, day.Token)

	all, err := d.ListEntriesPublic(s.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := d.ListEntriesPublic(s.ID, "2026-06-01")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, "day one", scoped[0].Note)

	// Revocation kills resolution and frees the scope for a new token.
	require.NoError(t, d.RevokeShareLink(whole.Token, owner.ID))
	_, err = d.GetShareLink(whole.Token)
	require.ErrorIs(t, err, ErrNotFound)

	fresh, err := d.GetOrCreateShareLink(s.ID, "", "tok-fresh")
	require.NoError(t, err)
	require.Equal(t, "tok-fresh", fresh.Token)

	// Only the owner can revoke.
	stranger := newTestUser(t, d, "stranger@example.com")
	require.ErrorIs(t, d.RevokeShareLink(day.Token, stranger.ID), ErrNotFound)
}
