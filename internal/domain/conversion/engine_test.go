package conversion

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clubcrm/clubcrm/internal/domain/member"
	"github.com/clubcrm/clubcrm/internal/domain/person"
	"github.com/clubcrm/clubcrm/internal/domain/preregistration"
)

// -- Preregistration repository mock --

type mockPreregRepo struct {
	items       map[uuid.UUID]*preregistration.Preregister
	conds       map[uuid.UUID][]uuid.UUID
	contacts    map[uuid.UUID][]*preregistration.Contact
	failDoneFor map[uuid.UUID]bool
}

func newMockPreregRepo() *mockPreregRepo {
	return &mockPreregRepo{
		items:       make(map[uuid.UUID]*preregistration.Preregister),
		conds:       make(map[uuid.UUID][]uuid.UUID),
		contacts:    make(map[uuid.UUID][]*preregistration.Contact),
		failDoneFor: make(map[uuid.UUID]bool),
	}
}

func (m *mockPreregRepo) Create(_ context.Context, p *preregistration.Preregister) error {
	p.ID = uuid.New()
	if p.Folio == "" {
		p.Folio = preregistration.NewFolio()
	}
	m.items[p.ID] = p
	return nil
}

func (m *mockPreregRepo) GetByID(_ context.Context, id uuid.UUID) (*preregistration.Preregister, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, preregistration.ErrNotFound
	}
	return p, nil
}

func (m *mockPreregRepo) GetByFolio(_ context.Context, folio string) (*preregistration.Preregister, error) {
	for _, p := range m.items {
		if p.Folio == folio {
			return p, nil
		}
	}
	return nil, preregistration.ErrNotFound
}

func (m *mockPreregRepo) List(_ context.Context, status preregistration.ApprovalStatus, limit, offset int) ([]*preregistration.Preregister, int, error) {
	var items []*preregistration.Preregister
	for _, p := range m.items {
		if status == "" || p.ApprovalStatus == status {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

func (m *mockPreregRepo) SetStatus(_ context.Context, id uuid.UUID, status preregistration.ApprovalStatus) error {
	p, ok := m.items[id]
	if !ok {
		return preregistration.ErrNotFound
	}
	p.ApprovalStatus = status
	return nil
}

func (m *mockPreregRepo) MarkDone(_ context.Context, id, memberID uuid.UUID) error {
	if m.failDoneFor[id] {
		return fmt.Errorf("forced mark-done failure")
	}
	p, ok := m.items[id]
	if !ok {
		return preregistration.ErrNotFound
	}
	p.ApprovalStatus = preregistration.StatusDone
	p.MemberID = &memberID
	return nil
}

func (m *mockPreregRepo) CancelPendingSiblings(_ context.Context, curp string, id uuid.UUID) (int, error) {
	n := 0
	for _, p := range m.items {
		if p.CURP == curp && p.ID != id && p.ApprovalStatus == preregistration.StatusPending {
			p.ApprovalStatus = preregistration.StatusCanceled
			n++
		}
	}
	return n, nil
}

func (m *mockPreregRepo) ReplaceConditions(_ context.Context, id uuid.UUID, ids []uuid.UUID) error {
	m.conds[id] = ids
	return nil
}

func (m *mockPreregRepo) ConditionIDs(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return m.conds[id], nil
}

func (m *mockPreregRepo) CreateContact(_ context.Context, c *preregistration.Contact) error {
	c.ID = uuid.New()
	m.contacts[c.PreregisterID] = append(m.contacts[c.PreregisterID], c)
	return nil
}

func (m *mockPreregRepo) ListContacts(_ context.Context, id uuid.UUID) ([]*preregistration.Contact, error) {
	return m.contacts[id], nil
}

// -- Member repository mocks --

type mockMemberRepo struct {
	members map[uuid.UUID]*member.Member
	conds   map[uuid.UUID][]uuid.UUID
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{
		members: make(map[uuid.UUID]*member.Member),
		conds:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockMemberRepo) Create(_ context.Context, mem *member.Member) error {
	mem.ID = uuid.New()
	m.members[mem.ID] = mem
	return nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, id uuid.UUID) (*member.Member, error) {
	mem, ok := m.members[id]
	if !ok {
		return nil, member.ErrNotFound
	}
	return mem, nil
}

func (m *mockMemberRepo) GetByCode(_ context.Context, code string) (*member.Member, error) {
	for _, mem := range m.members {
		if mem.MemberCode == code {
			return mem, nil
		}
	}
	return nil, member.ErrNotFound
}

func (m *mockMemberRepo) GetByCURP(_ context.Context, curp string) (*member.Member, error) {
	for _, mem := range m.members {
		if mem.CURP == curp {
			return mem, nil
		}
	}
	return nil, member.ErrNotFound
}

func (m *mockMemberRepo) ExistsByCURP(ctx context.Context, curp string) (bool, error) {
	_, err := m.GetByCURP(ctx, curp)
	if err == member.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *mockMemberRepo) Update(_ context.Context, mem *member.Member) error {
	m.members[mem.ID] = mem
	return nil
}

func (m *mockMemberRepo) List(_ context.Context, limit, offset int) ([]*member.Member, int, error) {
	var members []*member.Member
	for _, mem := range m.members {
		members = append(members, mem)
	}
	return members, len(members), nil
}

func (m *mockMemberRepo) NextMemberCode(_ context.Context) (string, error) {
	var existing []int
	for _, mem := range m.members {
		if n, err := strconv.Atoi(mem.MemberCode); err == nil {
			existing = append(existing, n)
		}
	}
	return member.NextCode(existing), nil
}

func (m *mockMemberRepo) ReplaceConditions(_ context.Context, memberID uuid.UUID, ids []uuid.UUID) error {
	m.conds[memberID] = ids
	return nil
}

func (m *mockMemberRepo) ConditionIDs(_ context.Context, memberID uuid.UUID) ([]uuid.UUID, error) {
	return m.conds[memberID], nil
}

type mockContactRepo struct {
	contacts map[uuid.UUID][]*member.Contact
}

func newMockContactRepo() *mockContactRepo {
	return &mockContactRepo{contacts: make(map[uuid.UUID][]*member.Contact)}
}

func (m *mockContactRepo) Create(_ context.Context, c *member.Contact) error {
	c.ID = uuid.New()
	m.contacts[c.MemberID] = append(m.contacts[c.MemberID], c)
	return nil
}

func (m *mockContactRepo) GetByID(_ context.Context, id uuid.UUID) (*member.Contact, error) {
	for _, list := range m.contacts {
		for _, c := range list {
			if c.ID == id {
				return c, nil
			}
		}
	}
	return nil, member.ErrNotFound
}

func (m *mockContactRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]*member.Contact, error) {
	return m.contacts[memberID], nil
}

func (m *mockContactRepo) Update(_ context.Context, c *member.Contact) error { return nil }

func (m *mockContactRepo) Delete(_ context.Context, id uuid.UUID) error { return nil }

func (m *mockContactRepo) DeleteByMember(_ context.Context, memberID uuid.UUID) error {
	delete(m.contacts, memberID)
	return nil
}

type mockLogRepo struct {
	entries []*member.AccessLogEntry
	seq     int64
}

func (m *mockLogRepo) Append(_ context.Context, e *member.AccessLogEntry) error {
	m.seq++
	e.ID = uuid.New()
	e.Seq = m.seq
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockLogRepo) ListByMember(_ context.Context, memberID uuid.UUID) ([]*member.AccessLogEntry, error) {
	var entries []*member.AccessLogEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].MemberID == memberID {
			entries = append(entries, m.entries[i])
		}
	}
	return entries, nil
}

func (m *mockLogRepo) Latest(_ context.Context, memberID uuid.UUID) (*member.AccessLogEntry, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].MemberID == memberID {
			return m.entries[i], nil
		}
	}
	return nil, nil
}

// snapshotTx restores the mock stores when the unit of work fails, mirroring
// a database rollback closely enough for the isolation tests.
type snapshotTx struct {
	preregs *mockPreregRepo
	members *mockMemberRepo
	log     *mockLogRepo
}

func (t *snapshotTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	prevItems := make(map[uuid.UUID]preregistration.Preregister, len(t.preregs.items))
	for id, p := range t.preregs.items {
		prevItems[id] = *p
	}
	prevMembers := make(map[uuid.UUID]*member.Member, len(t.members.members))
	for id, m := range t.members.members {
		prevMembers[id] = m
	}
	prevLog := append([]*member.AccessLogEntry(nil), t.log.entries...)

	if err := fn(ctx); err != nil {
		for id := range t.preregs.items {
			if prev, ok := prevItems[id]; ok {
				restored := prev
				t.preregs.items[id] = &restored
			} else {
				delete(t.preregs.items, id)
			}
		}
		t.members.members = prevMembers
		t.log.entries = prevLog
		return err
	}
	return nil
}

// -- Fixture --

type fixture struct {
	engine   *Engine
	preregs  *mockPreregRepo
	members  *mockMemberRepo
	contacts *mockContactRepo
	log      *mockLogRepo
	statusID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		preregs:  newMockPreregRepo(),
		members:  newMockMemberRepo(),
		contacts: newMockContactRepo(),
		log:      &mockLogRepo{},
		statusID: uuid.New(),
	}
	tx := &snapshotTx{preregs: f.preregs, members: f.members, log: f.log}
	memberSvc := member.NewService(f.members, f.contacts, f.log, tx, f.statusID)
	f.engine = NewEngine(f.preregs, memberSvc, tx, zerolog.Nop())
	return f
}

func (f *fixture) seedPending(curp string) *preregistration.Preregister {
	p := &preregistration.Preregister{
		Person: person.Person{
			Name:        "Juan Perez",
			CURP:        curp,
			BirthDate:   time.Date(2010, 3, 15, 0, 0, 0, 0, time.UTC),
			Gender:      "M",
			PhoneNumber: "5512345678",
			Email:       "juan.perez@example.com",
		},
		ApprovalStatus: preregistration.StatusPending,
	}
	_ = f.preregs.Create(context.Background(), p)
	f.preregs.conds[p.ID] = []uuid.UUID{uuid.New()}
	f.preregs.contacts[p.ID] = []*preregistration.Contact{
		{PreregisterID: p.ID, Name: "Maria Perez", PhoneNumber: "5587654321", IsPrimary: true},
		{PreregisterID: p.ID, Name: "Pedro Perez", PhoneNumber: "5587654322", IsEmergency: true},
	}
	return p
}

// -- Tests --

func TestConvert_CreatesMemberAndClosesPreregistration(t *testing.T) {
	f := newFixture()
	p := f.seedPending("JUAP010101HDFRRN09")
	operator := "front-desk"

	summary := f.engine.Convert(context.Background(), []uuid.UUID{p.ID}, &operator)
	if summary.Converted != 1 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 converted", summary)
	}

	m, err := f.members.GetByCURP(context.Background(), p.CURP)
	if err != nil {
		t.Fatalf("converted member not found: %v", err)
	}
	if m.MemberCode != "5000" {
		t.Errorf("member code = %q, want 5000", m.MemberCode)
	}
	if len(f.contacts.contacts[m.ID]) != 2 {
		t.Errorf("expected 2 copied contacts, got %d", len(f.contacts.contacts[m.ID]))
	}
	var primary, emergency bool
	for _, c := range f.contacts.contacts[m.ID] {
		primary = primary || c.IsPrimary
		emergency = emergency || c.IsEmergency
	}
	if !primary || !emergency {
		t.Error("contact flags must be copied verbatim")
	}
	if len(f.members.conds[m.ID]) != 1 {
		t.Errorf("expected the condition set to be copied, got %v", f.members.conds[m.ID])
	}
	if len(f.log.entries) != 1 || f.log.entries[0].StatusID != f.statusID {
		t.Error("new member must get its initial ledger entry")
	}
	if f.log.entries[0].ChangedBy == nil || *f.log.entries[0].ChangedBy != operator {
		t.Error("ledger entry must record the operator")
	}

	got := f.preregs.items[p.ID]
	if got.ApprovalStatus != preregistration.StatusDone {
		t.Errorf("preregistration status = %s, want DONE", got.ApprovalStatus)
	}
	if got.MemberID == nil || *got.MemberID != m.ID {
		t.Error("preregistration must link the produced member")
	}
}

func TestConvert_SkipsNonPending(t *testing.T) {
	f := newFixture()
	p := f.seedPending("JUAP010101HDFRRN09")
	p.ApprovalStatus = preregistration.StatusCanceled

	summary := f.engine.Convert(context.Background(), []uuid.UUID{p.ID}, nil)
	if summary.Skipped != 1 || summary.Converted != 0 {
		t.Errorf("summary = %+v, want 1 skipped", summary)
	}
	if len(f.members.members) != 0 {
		t.Error("skipped item must not produce a member")
	}
}

func TestConvert_SkipsExistingCURP(t *testing.T) {
	f := newFixture()
	p := f.seedPending("JUAP010101HDFRRN09")

	existing := &member.Member{Person: p.Person}
	existing.MemberCode = "5000"
	_ = f.members.Create(context.Background(), existing)

	summary := f.engine.Convert(context.Background(), []uuid.UUID{p.ID}, nil)
	if summary.Skipped != 1 {
		t.Fatalf("summary = %+v, want 1 skipped", summary)
	}
	if f.preregs.items[p.ID].ApprovalStatus != preregistration.StatusPending {
		t.Error("skipped item must stay PENDING, untouched")
	}
	if len(f.members.members) != 1 {
		t.Error("no second member may appear")
	}
}

func TestConvert_CancelsPendingSiblings(t *testing.T) {
	f := newFixture()
	const curp = "JUAP010101HDFRRN09"
	first := f.seedPending(curp)
	second := f.seedPending(curp)
	third := f.seedPending(curp)

	summary := f.engine.Convert(context.Background(), []uuid.UUID{first.ID}, nil)
	if summary.Converted != 1 {
		t.Fatalf("summary = %+v, want 1 converted", summary)
	}

	if f.preregs.items[first.ID].ApprovalStatus != preregistration.StatusDone {
		t.Error("converted item must be DONE")
	}
	for _, sibling := range []*preregistration.Preregister{second, third} {
		if f.preregs.items[sibling.ID].ApprovalStatus != preregistration.StatusCanceled {
			t.Errorf("sibling %s = %s, want CANCELED", sibling.ID, f.preregs.items[sibling.ID].ApprovalStatus)
		}
	}
	for _, p := range f.preregs.items {
		if p.CURP == curp && p.ApprovalStatus == preregistration.StatusPending {
			t.Error("reconciliation must leave zero PENDING siblings")
		}
	}
	if len(f.members.members) != 1 {
		t.Errorf("expected exactly 1 member, got %d", len(f.members.members))
	}
}

func TestConvert_PerItemIsolation(t *testing.T) {
	f := newFixture()
	bad := f.seedPending("JUAP010101HDFRRN09")
	good := f.seedPending("CARH020202HDFRRN04")
	f.preregs.failDoneFor[bad.ID] = true

	summary := f.engine.Convert(context.Background(), []uuid.UUID{bad.ID, good.ID}, nil)
	if summary.Converted != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 converted / 1 failed", summary)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Item != bad.ID {
		t.Fatalf("errors = %+v, want the failed item identified", summary.Errors)
	}

	// The failed item's member creation must have been rolled back.
	if len(f.members.members) != 1 {
		t.Errorf("expected 1 member after rollback, got %d", len(f.members.members))
	}
	if _, err := f.members.GetByCURP(context.Background(), good.CURP); err != nil {
		t.Errorf("good item must convert despite the bad one: %v", err)
	}
	if f.preregs.items[bad.ID].ApprovalStatus != preregistration.StatusPending {
		t.Error("failed item must remain PENDING")
	}
}

func TestConvert_UnknownItemFails(t *testing.T) {
	f := newFixture()
	ghost := uuid.New()

	summary := f.engine.Convert(context.Background(), []uuid.UUID{ghost}, nil)
	if summary.Failed != 1 || len(summary.Errors) != 1 {
		t.Fatalf("summary = %+v, want 1 failed with its error", summary)
	}
	if summary.Errors[0].Item != ghost {
		t.Error("error must identify the unknown item")
	}
}
