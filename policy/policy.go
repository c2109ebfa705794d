// Package policy answers the owner/editor/viewer questions gating survey
// access. Checks run before any results computation; the results package
// itself never authorizes.
package policy

import (
	"context"
	"database/sql"
)

// IsOwner reports whether the user owns the survey. sql.ErrNoRows is
// returned when the survey does not exist.
func IsOwner(ctx context.Context, db *sql.DB, surveyID, userID int) (bool, error) {
	var ownerID int
	err := db.QueryRowContext(ctx,
		"SELECT owner_id FROM survey WHERE id = ?",
		surveyID,
	).Scan(&ownerID)
	if err != nil {
		return false, err
	}
	return ownerID == userID, nil
}

// CanEdit reports whether the user owns the survey or collaborates on it as
// an editor.
func CanEdit(ctx context.Context, db *sql.DB, surveyID, userID int) (bool, error) {
	var ok bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM survey s
			WHERE s.id = ? AND s.owner_id = ?
			UNION
			SELECT 1 FROM collaborator c
			WHERE c.survey_id = ? AND c.user_id = ? AND c.role = 'editor'
		)`,
		surveyID, userID,
		surveyID, userID,
	).Scan(&ok)
	return ok, err
}

// CanView reports whether the user owns the survey or collaborates on it in
// any role. Viewing results requires exactly this.
func CanView(ctx context.Context, db *sql.DB, surveyID, userID int) (bool, error) {
	var ok bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM survey s
			WHERE s.id = ? AND s.owner_id = ?
			UNION
			SELECT 1 FROM collaborator c
			WHERE c.survey_id = ? AND c.user_id = ?
		)`,
		surveyID, userID,
		surveyID, userID,
	).Scan(&ok)
	return ok, err
}
