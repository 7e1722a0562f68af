package postgres

const (
	queryGetProjectByName = `SELECT id, name FROM projects WHERE name = $1`

	queryGetProjectByID = `SELECT id, name FROM projects WHERE id = $1`

	// Insert-or-fetch on the unique name; RETURNING yields no row when the
	// conflict branch is taken, so callers re-select on sql.ErrNoRows.
	queryCreateProject = `
		INSERT INTO projects (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name`

	queryInsertKey = `
		INSERT INTO project_keys (project_id, encryption_key) VALUES ($1, $2)
		ON CONFLICT (project_id) DO NOTHING`

	queryGetKey = `SELECT encryption_key FROM project_keys WHERE project_id = $1`

	queryCreateComment = `
		INSERT INTO comments (project_id, feature_url, user_id, rating, comment, created_at, language, sentiment, sentiment_score)
		SELECT p.id, $2, $3, $4, $5, $6, $7, $8, $9 FROM projects p WHERE p.name = $1
		RETURNING id`

	queryRecordDisplay = `
		INSERT INTO displays (project_id, user_id, feature_url, shown_at)
		SELECT p.id, $2, $3, $4 FROM projects p WHERE p.name = $1
		RETURNING id`

	queryProjectAvgRating = `SELECT AVG(rating)::float8 FROM comments WHERE project_id = $1`

	queryFeatureAvgRating = `SELECT AVG(rating)::float8 FROM comments WHERE project_id = $1 AND feature_url = $2`

	// Base of the dynamic listing queries; WHERE clauses are appended by
	// buildCommentFilter.
	queryListCommentsBase = `
		SELECT c.id, p.name, c.feature_url, c.user_id, c.rating, c.comment, c.created_at, c.language, c.sentiment, c.sentiment_score
		FROM comments c
		JOIN projects p ON p.id = c.project_id`

	queryCountCommentsBase = `
		SELECT COUNT(*)
		FROM comments c
		JOIN projects p ON p.id = c.project_id`
)
