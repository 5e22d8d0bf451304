package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/censeo-io/censeo-v2/internal/database"
	"github.com/censeo-io/censeo-v2/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func loginUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()

	user, err := NewAuthService(db).Login(name, email)
	if err != nil {
		t.Fatalf("Login(%q, %q) error = %v", name, email, err)
	}
	return user
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want typed policy error", err)
	}
	if se.Kind != kind {
		t.Fatalf("error kind = %d (%q), want %d", se.Kind, se.Message, kind)
	}
}

// ---------- auth ----------

func TestLogin_IdempotentIdentity(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db)

	first, err := svc.Login("Alice Smith", "alice@example.com")
	if err != nil {
		t.Fatalf("first login error = %v", err)
	}

	second, err := svc.Login("Alicia Smythe", "alice@example.com")
	if err != nil {
		t.Fatalf("second login error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("user id changed across logins: %s vs %s", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("user count = %d, want 1", count)
	}

	// stored name reflects the most recent login
	if second.FirstName != "Alicia" || second.LastName != "Smythe" {
		t.Errorf("name = %q %q, want Alicia Smythe", second.FirstName, second.LastName)
	}
}

func TestLogin_BlankFields(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db)

	_, err := svc.Login("", "alice@example.com")
	assertKind(t, err, KindValidation)

	_, err = svc.Login("Alice", "   ")
	assertKind(t, err, KindValidation)
}

func TestLogin_SplitsName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(db)

	user, err := svc.Login("Alice", "a@example.com")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if user.FirstName != "Alice" || user.LastName != "" {
		t.Errorf("name = %q %q, want Alice and empty last name", user.FirstName, user.LastName)
	}

	user, err = svc.Login("Mary Jane Watson", "mj@example.com")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if user.FirstName != "Mary" || user.LastName != "Jane Watson" {
		t.Errorf("name = %q %q, want Mary and Jane Watson", user.FirstName, user.LastName)
	}
}

// ---------- sessions ----------

func TestCreateSession_AutoEnrollsFacilitator(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice Smith", "alice@example.com")

	session, err := NewSessionService(db).Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}

	if session.Status != models.SessionStatusActive {
		t.Errorf("status = %q, want active", session.Status)
	}
	if session.Facilitator.Email != "alice@example.com" {
		t.Errorf("facilitator email = %q", session.Facilitator.Email)
	}
	if len(session.Participants) != 1 {
		t.Fatalf("participant count = %d, want 1", len(session.Participants))
	}
	p := session.Participants[0]
	if p.UserID != alice.ID || !p.IsActive {
		t.Errorf("facilitator participant = %+v, want active record for creator", p)
	}
}

func TestCreateSession_NameValidation(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	svc := NewSessionService(db)

	_, err := svc.Create(alice, "   ")
	assertKind(t, err, KindValidation)

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Create(alice, string(long))
	assertKind(t, err, KindValidation)
}

func TestListSessions_OrderAndScope(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	svc := NewSessionService(db)

	older, err := svc.Create(alice, "Older")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	newer, err := svc.Create(alice, "Newer")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}

	if _, _, _, err := svc.Join(older.ID, bob); err != nil {
		t.Fatalf("join error = %v", err)
	}

	aliceSessions, err := svc.List(alice)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if len(aliceSessions) != 2 {
		t.Fatalf("alice session count = %d, want 2", len(aliceSessions))
	}
	if aliceSessions[0].ID != newer.ID {
		t.Errorf("first session = %q, want newest first", aliceSessions[0].Name)
	}

	bobSessions, err := svc.List(bob)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if len(bobSessions) != 1 || bobSessions[0].ID != older.ID {
		t.Errorf("bob sees %d sessions, want only the one he joined", len(bobSessions))
	}
}

func TestGetSession_AccessControl(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	mallory := loginUser(t, db, "Mallory", "mallory@example.com")
	svc := NewSessionService(db)

	session, err := svc.Create(alice, "Private Planning")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}

	if _, err := svc.Get(session.ID, alice); err != nil {
		t.Errorf("participant Get error = %v, want nil", err)
	}

	_, err = svc.Get(session.ID, mallory)
	assertKind(t, err, KindForbidden)

	_, err = svc.Get("b5ec6640-0000-4000-8000-000000000000", alice)
	assertKind(t, err, KindNotFound)

	_, err = svc.Get("not-a-uuid", alice)
	assertKind(t, err, KindNotFound)
}

func TestJoinSession_Twice(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	svc := NewSessionService(db)

	session, err := svc.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}

	_, p1, outcome, err := svc.Join(session.ID, bob)
	if err != nil {
		t.Fatalf("first join error = %v", err)
	}
	if outcome != Joined {
		t.Errorf("first join outcome = %d, want Joined", outcome)
	}

	_, p2, outcome, err := svc.Join(session.ID, bob)
	if err != nil {
		t.Fatalf("second join error = %v", err)
	}
	if outcome != AlreadyJoined {
		t.Errorf("second join outcome = %d, want AlreadyJoined", outcome)
	}
	if p1.ID != p2.ID {
		t.Errorf("participant record duplicated: %d vs %d", p1.ID, p2.ID)
	}

	var count int64
	db.Model(&models.SessionParticipant{}).
		Where("session_id = ? AND user_id = ?", session.ID, bob.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("participant rows = %d, want 1", count)
	}
}

func TestJoinSession_Completed(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	svc := NewSessionService(db)

	session, err := svc.Create(alice, "Done Planning")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}
	if _, err := svc.UpdateStatus(session.ID, alice, models.SessionStatusCompleted); err != nil {
		t.Fatalf("update status error = %v", err)
	}

	_, _, _, err = svc.Join(session.ID, bob)
	assertKind(t, err, KindInvalidState)

	// even prior participants cannot rejoin a completed session
	_, _, _, err = svc.Join(session.ID, alice)
	assertKind(t, err, KindInvalidState)
}

func TestLeaveSession_Rules(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	carol := loginUser(t, db, "Carol", "carol@example.com")
	svc := NewSessionService(db)

	session, err := svc.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}
	if _, _, _, err := svc.Join(session.ID, bob); err != nil {
		t.Fatalf("join error = %v", err)
	}

	// facilitator cannot leave
	_, err = svc.Leave(session.ID, alice)
	assertKind(t, err, KindForbidden)

	// a non-participant cannot leave
	_, err = svc.Leave(session.ID, carol)
	assertKind(t, err, KindInvalidState)

	// participant leave is a soft delete
	if _, err := svc.Leave(session.ID, bob); err != nil {
		t.Fatalf("leave error = %v", err)
	}
	var p models.SessionParticipant
	if err := db.Where("session_id = ? AND user_id = ?", session.ID, bob.ID).First(&p).Error; err != nil {
		t.Fatalf("participant record gone after leave: %v", err)
	}
	if p.IsActive {
		t.Error("participant still active after leave")
	}

	// rejoin reactivates the same record
	_, rejoined, outcome, err := svc.Join(session.ID, bob)
	if err != nil {
		t.Fatalf("rejoin error = %v", err)
	}
	if outcome != Rejoined {
		t.Errorf("rejoin outcome = %d, want Rejoined", outcome)
	}
	if rejoined.ID != p.ID || !rejoined.IsActive {
		t.Errorf("rejoin did not reactivate the original record: %+v", rejoined)
	}
}

func TestUpdateStatus_Policy(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	svc := NewSessionService(db)

	session, err := svc.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}
	if _, _, _, err := svc.Join(session.ID, bob); err != nil {
		t.Fatalf("join error = %v", err)
	}

	_, err = svc.UpdateStatus(session.ID, bob, models.SessionStatusPaused)
	assertKind(t, err, KindForbidden)

	_, err = svc.UpdateStatus(session.ID, alice, "archived")
	assertKind(t, err, KindValidation)

	updated, err := svc.UpdateStatus(session.ID, alice, models.SessionStatusPaused)
	if err != nil {
		t.Fatalf("update status error = %v", err)
	}
	if updated.Status != models.SessionStatusPaused {
		t.Errorf("status = %q, want paused", updated.Status)
	}
}

func TestParticipants_ActiveOnly(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	mallory := loginUser(t, db, "Mallory", "mallory@example.com")
	svc := NewSessionService(db)

	session, err := svc.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create error = %v", err)
	}
	if _, _, _, err := svc.Join(session.ID, bob); err != nil {
		t.Fatalf("join error = %v", err)
	}

	_, _, err = svc.Participants(session.ID, mallory)
	assertKind(t, err, KindForbidden)

	if _, err := svc.Leave(session.ID, bob); err != nil {
		t.Fatalf("leave error = %v", err)
	}

	_, participants, err := svc.Participants(session.ID, alice)
	if err != nil {
		t.Fatalf("participants error = %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("active participants = %d, want 1", len(participants))
	}
	if participants[0].User.Email != "alice@example.com" {
		t.Errorf("remaining participant = %q, want alice", participants[0].User.Email)
	}
}

// ---------- stories ----------

func TestCreateStory_FacilitatorOnly(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	if _, _, _, err := sessions.Join(session.ID, bob); err != nil {
		t.Fatalf("join error = %v", err)
	}

	_, err = stories.Create(session.ID, bob, StoryInput{Title: "Login"})
	assertKind(t, err, KindForbidden)

	story, err := stories.Create(session.ID, alice, StoryInput{Title: "Login"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}
	if story.Status != models.StoryStatusPending {
		t.Errorf("status = %q, want pending", story.Status)
	}
}

func TestCreateStory_AutoOrder(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}

	first, err := stories.Create(session.ID, alice, StoryInput{Title: "Login"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}
	second, err := stories.Create(session.ID, alice, StoryInput{Title: "Signup"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}

	if first.StoryOrder != 1 || second.StoryOrder != 2 {
		t.Errorf("auto orders = %d, %d, want 1, 2", first.StoryOrder, second.StoryOrder)
	}
}

func TestCreateStory_OrderConflict(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}

	order := 1
	if _, err := stories.Create(session.ID, alice, StoryInput{Title: "Login", Order: &order}); err != nil {
		t.Fatalf("create story error = %v", err)
	}

	_, err = stories.Create(session.ID, alice, StoryInput{Title: "Signup", Order: &order})
	assertKind(t, err, KindConflict)

	// the same order is fine in another session
	other, err := sessions.Create(alice, "Other Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	if _, err := stories.Create(other.ID, alice, StoryInput{Title: "Signup", Order: &order}); err != nil {
		t.Errorf("same order in another session error = %v, want nil", err)
	}
}

func TestCreateStory_Validation(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}

	_, err = stories.Create(session.ID, alice, StoryInput{Title: "  "})
	assertKind(t, err, KindValidation)

	_, err = stories.Create(session.ID, alice, StoryInput{Title: "Login", Status: "estimating"})
	assertKind(t, err, KindValidation)
}

func TestUpdateStory_ReplacesFields(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	if _, _, _, err := sessions.Join(session.ID, bob); err != nil {
		t.Fatalf("join error = %v", err)
	}
	story, err := stories.Create(session.ID, alice, StoryInput{Title: "Login", Description: "old"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}

	_, err = stories.Update(session.ID, story.ID, bob, StoryInput{Title: "Hijack"})
	assertKind(t, err, KindForbidden)

	newOrder := 7
	updated, err := stories.Update(session.ID, story.ID, alice, StoryInput{
		Title:       "Login flow",
		Description: "with SSO",
		Order:       &newOrder,
		Status:      models.StoryStatusVoting,
	})
	if err != nil {
		t.Fatalf("update story error = %v", err)
	}
	if updated.Title != "Login flow" || updated.Description != "with SSO" ||
		updated.StoryOrder != 7 || updated.Status != models.StoryStatusVoting {
		t.Errorf("updated story = %+v", updated)
	}
}

func TestDeleteStory_CascadesVotes(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)
	votes := NewVoteService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	story, err := stories.Create(session.ID, alice, StoryInput{Title: "Login"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}
	if _, err := votes.Cast(session.ID, story.ID, alice, "5"); err != nil {
		t.Fatalf("cast error = %v", err)
	}

	if err := stories.Delete(session.ID, story.ID, alice); err != nil {
		t.Fatalf("delete story error = %v", err)
	}

	var count int64
	db.Model(&models.Vote{}).Where("story_id = ?", story.ID).Count(&count)
	if count != 0 {
		t.Errorf("votes left after story delete = %d, want 0", count)
	}

	err = stories.Delete(session.ID, story.ID, alice)
	assertKind(t, err, KindNotFound)
}

func TestGetStory_WrongSession(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)

	one, err := sessions.Create(alice, "One")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	two, err := sessions.Create(alice, "Two")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	story, err := stories.Create(one.ID, alice, StoryInput{Title: "Login"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}

	_, err = stories.Get(two.ID, story.ID, alice)
	assertKind(t, err, KindNotFound)
}

// ---------- votes ----------

func TestCastVote_UpsertReplaces(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)
	votes := NewVoteService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	story, err := stories.Create(session.ID, alice, StoryInput{Title: "Login"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}

	first, err := votes.Cast(session.ID, story.ID, alice, "5")
	if err != nil {
		t.Fatalf("first cast error = %v", err)
	}
	second, err := votes.Cast(session.ID, story.ID, alice, "8")
	if err != nil {
		t.Fatalf("second cast error = %v", err)
	}

	if second.Points != "8" {
		t.Errorf("points = %q, want 8", second.Points)
	}
	if first.ID != second.ID {
		t.Errorf("re-vote created a new row: %s vs %s", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.Vote{}).Where("story_id = ?", story.ID).Count(&count)
	if count != 1 {
		t.Errorf("vote rows = %d, want 1", count)
	}
}

func TestCastVote_InvalidPoints(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)
	votes := NewVoteService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	story, err := stories.Create(session.ID, alice, StoryInput{Title: "Login"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}

	_, err = votes.Cast(session.ID, story.ID, alice, "4")
	assertKind(t, err, KindValidation)
}

func TestCastVote_RequiresActiveParticipant(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)
	votes := NewVoteService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	story, err := stories.Create(session.ID, alice, StoryInput{Title: "Login"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}

	// never joined
	_, err = votes.Cast(session.ID, story.ID, bob, "5")
	assertKind(t, err, KindForbidden)

	// joined but left
	if _, _, _, err := sessions.Join(session.ID, bob); err != nil {
		t.Fatalf("join error = %v", err)
	}
	if _, err := sessions.Leave(session.ID, bob); err != nil {
		t.Fatalf("leave error = %v", err)
	}
	_, err = votes.Cast(session.ID, story.ID, bob, "5")
	assertKind(t, err, KindForbidden)
}

func TestListVotes(t *testing.T) {
	db := setupTestDB(t)
	alice := loginUser(t, db, "Alice", "alice@example.com")
	bob := loginUser(t, db, "Bob", "bob@example.com")
	sessions := NewSessionService(db)
	stories := NewStoryService(db)
	votes := NewVoteService(db)

	session, err := sessions.Create(alice, "Sprint Planning")
	if err != nil {
		t.Fatalf("create session error = %v", err)
	}
	if _, _, _, err := sessions.Join(session.ID, bob); err != nil {
		t.Fatalf("join error = %v", err)
	}
	story, err := stories.Create(session.ID, alice, StoryInput{Title: "Login"})
	if err != nil {
		t.Fatalf("create story error = %v", err)
	}
	if _, err := votes.Cast(session.ID, story.ID, alice, "5"); err != nil {
		t.Fatalf("cast error = %v", err)
	}
	if _, err := votes.Cast(session.ID, story.ID, bob, "?"); err != nil {
		t.Fatalf("cast error = %v", err)
	}

	_, list, err := votes.ListForStory(session.ID, story.ID, bob)
	if err != nil {
		t.Fatalf("list votes error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("vote count = %d, want 2", len(list))
	}
	for _, v := range list {
		if v.User.Email == "" {
			t.Error("vote missing voter identity")
		}
	}
}
