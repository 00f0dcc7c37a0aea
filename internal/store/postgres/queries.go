package postgres

const (
	userColumns = `u.id, u.name, u.balance`

	edgeColumns = `,
  COALESCE((SELECT array_agg(s.author_id::text ORDER BY s.author_id) FROM subscriptions s WHERE s.subscriber_id = u.id), '{}') AS subscribed_to,
  COALESCE((SELECT array_agg(s.subscriber_id::text ORDER BY s.subscriber_id) FROM subscriptions s WHERE s.author_id = u.id), '{}') AS subscribers`

	listUsers   = `SELECT ` + userColumns + ` FROM users u ORDER BY u.id`
	listUsersEd = `SELECT ` + userColumns + edgeColumns + ` FROM users u ORDER BY u.id`
	findUsers   = `SELECT ` + userColumns + ` FROM users u WHERE u.id = ANY($1)`
	findUsersEd = `SELECT ` + userColumns + edgeColumns + ` FROM users u WHERE u.id = ANY($1)`
	findUser    = `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	insertUser  = `INSERT INTO users (id, name, balance) VALUES ($1, $2, $3) RETURNING id, name, balance`
	updateUser  = `UPDATE users SET name = COALESCE($2, name), balance = COALESCE($3, balance) WHERE id = $1 RETURNING id, name, balance`
	deleteUser  = `DELETE FROM users WHERE id = $1`
	subscribe   = `INSERT INTO subscriptions (subscriber_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	unsubscribe = `DELETE FROM subscriptions WHERE subscriber_id = $1 AND author_id = $2`

	postColumns        = `id, title, content, author_id`
	listPosts          = `SELECT ` + postColumns + ` FROM posts ORDER BY id`
	findPostsByAuthors = `SELECT ` + postColumns + ` FROM posts WHERE author_id = ANY($1) ORDER BY id`
	findPost           = `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	insertPost         = `INSERT INTO posts (id, title, content, author_id) VALUES ($1, $2, $3, $4) RETURNING ` + postColumns
	updatePost         = `UPDATE posts SET title = COALESCE($2, title), content = COALESCE($3, content) WHERE id = $1 RETURNING ` + postColumns
	deletePost         = `DELETE FROM posts WHERE id = $1`

	profileColumns      = `id, is_male, year_of_birth, user_id, member_type_id`
	listProfiles        = `SELECT ` + profileColumns + ` FROM profiles ORDER BY id`
	findProfilesByUsers = `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ANY($1)`
	findProfile         = `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	insertProfile       = `INSERT INTO profiles (` + profileColumns + `) VALUES ($1, $2, $3, $4, $5) RETURNING ` + profileColumns
	updateProfile       = `UPDATE profiles SET is_male = COALESCE($2, is_male), year_of_birth = COALESCE($3, year_of_birth), member_type_id = COALESCE($4, member_type_id) WHERE id = $1 RETURNING ` + profileColumns
	deleteProfile       = `DELETE FROM profiles WHERE id = $1`

	memberTypeColumns = `id, discount, posts_limit_per_month`
	listMemberTypes   = `SELECT ` + memberTypeColumns + ` FROM member_types ORDER BY id`
	findMemberTypes   = `SELECT ` + memberTypeColumns + ` FROM member_types WHERE id = ANY($1)`
	findMemberType    = `SELECT ` + memberTypeColumns + ` FROM member_types WHERE id = $1`
	seedMemberType    = `INSERT INTO member_types (` + memberTypeColumns + `) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`
)
