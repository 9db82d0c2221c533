package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/association-platform/internal/model"
)

const electionColumns = "id, tenant_id, position_id, title, description, start_date, end_date, is_active, created_at"

// ElectionRepo persists elections, candidates and votes. The
// (election_id, user_id) unique key on votes enforces one vote per member.
type ElectionRepo struct{ DB *sql.DB }

func NewElectionRepo(db *sql.DB) *ElectionRepo { return &ElectionRepo{DB: db} }

func scanElection(row interface{ Scan(...any) error }) (model.Election, error) {
	var (
		e        model.Election
		position sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.TenantID, &position, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.IsActive, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	e.PositionID = idPtr(position)
	return e, err
}

func (r *ElectionRepo) Create(ctx context.Context, e *model.Election) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO elections (tenant_id, position_id, title, description, start_date, end_date, is_active, created_at) VALUES (?,?,?,?,?,?,?,?)",
		e.TenantID, nullID(e.PositionID), e.Title, e.Description, e.StartDate.UTC(), e.EndDate.UTC(), e.IsActive, now)
	if err != nil {
		return err
	}
	if e.ID, err = lastInsertID(res); err != nil {
		return err
	}
	e.CreatedAt = now
	return nil
}

func (r *ElectionRepo) Get(ctx context.Context, tenantID, id uint64) (model.Election, error) {
	return scanElection(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+electionColumns+" FROM elections WHERE id=? AND tenant_id=?", id, tenantID))
}

func (r *ElectionRepo) List(ctx context.Context, tenantID uint64) ([]model.Election, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT "+electionColumns+" FROM elections WHERE tenant_id=? ORDER BY start_date DESC, id DESC", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes an election with its candidates and votes.
func (r *ElectionRepo) Delete(ctx context.Context, tenantID, id uint64) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx, "DELETE FROM elections WHERE id=? AND tenant_id=?", id, tenantID)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *ElectionRepo) CreateCandidate(ctx context.Context, c *model.Candidate) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO candidates (election_id, name, bio, photo_url, created_at) VALUES (?,?,?,?,?)",
		c.ElectionID, c.Name, c.Bio, c.PhotoURL, now)
	if err != nil {
		return err
	}
	if c.ID, err = lastInsertID(res); err != nil {
		return err
	}
	c.CreatedAt = now
	return nil
}

func (r *ElectionRepo) GetCandidate(ctx context.Context, id uint64) (model.Candidate, error) {
	var c model.Candidate
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT id, election_id, name, bio, photo_url, created_at FROM candidates WHERE id=?", id).
		Scan(&c.ID, &c.ElectionID, &c.Name, &c.Bio, &c.PhotoURL, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// ListCandidates returns an election's candidates in creation order.
func (r *ElectionRepo) ListCandidates(ctx context.Context, electionID uint64) ([]model.Candidate, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT id, election_id, name, bio, photo_url, created_at FROM candidates WHERE election_id=? ORDER BY id", electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Candidate{}
	for rows.Next() {
		var c model.Candidate
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Bio, &c.PhotoURL, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateVote records a vote. ErrConflict means the user already voted in
// this election.
func (r *ElectionRepo) CreateVote(ctx context.Context, v *model.Vote) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO votes (election_id, candidate_id, user_id, created_at) VALUES (?,?,?,?)",
		v.ElectionID, v.CandidateID, v.UserID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if v.ID, err = lastInsertID(res); err != nil {
		return err
	}
	v.CreatedAt = now
	return nil
}

func (r *ElectionRepo) HasVoted(ctx context.Context, electionID, userID uint64) (bool, error) {
	var one int
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT 1 FROM votes WHERE election_id=? AND user_id=? LIMIT 1", electionID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// CountVotes groups an election's votes by candidate. Candidates without
// votes are absent from the map.
func (r *ElectionRepo) CountVotes(ctx context.Context, electionID uint64) (map[uint64]int64, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx,
		"SELECT candidate_id, COUNT(*) FROM votes WHERE election_id=? GROUP BY candidate_id", electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uint64]int64)
	for rows.Next() {
		var (
			id uint64
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

const positionColumns = "id, tenant_id, title, description, term_length, is_executive, current_holder_id, created_at"

func scanPosition(row interface{ Scan(...any) error }) (model.Position, error) {
	var (
		p      model.Position
		holder sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.TenantID, &p.Title, &p.Description, &p.TermLength, &p.IsExecutive, &holder, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	p.CurrentHolderID = idPtr(holder)
	return p, err
}

// CreatePosition inserts p. Titles are unique per tenant; a duplicate
// reports ErrConflict.
func (r *ElectionRepo) CreatePosition(ctx context.Context, p *model.Position) error {
	now := time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO positions (tenant_id, title, description, term_length, is_executive, current_holder_id, created_at) VALUES (?,?,?,?,?,?,?)",
		p.TenantID, p.Title, p.Description, p.TermLength, p.IsExecutive, nullID(p.CurrentHolderID), now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if p.ID, err = lastInsertID(res); err != nil {
		return err
	}
	p.CreatedAt = now
	return nil
}

func (r *ElectionRepo) GetPosition(ctx context.Context, tenantID, id uint64) (model.Position, error) {
	return scanPosition(conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT "+positionColumns+" FROM positions WHERE id=? AND tenant_id=?", id, tenantID))
}

func (r *ElectionRepo) ListPositions(ctx context.Context, tenantID uint64, page Page) ([]model.Position, error) {
	page = page.Normalize()
	q, args, err := sq.Select(positionColumns).From("positions").Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("is_executive DESC", "title", "id").Limit(page.Limit).Offset(page.Offset).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn(ctx, r.DB).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Position{}
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
