// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Plans, weeks, prescriptions, training maxes, export log and review inputs.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS training_max (
		id TEXT PRIMARY KEY,
		lift_code TEXT NOT NULL,
		value_kg REAL NOT NULL,
		measured_at DATETIME NOT NULL,
		source TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		week_count INTEGER NOT NULL,
		is_test INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plan_weeks (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL,
		week_number INTEGER NOT NULL,
		UNIQUE (plan_id, week_number),
		FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS workout_prescriptions (
		id TEXT PRIMARY KEY,
		week_id TEXT NOT NULL,
		day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
		exercise_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		sets INTEGER NOT NULL,
		reps INTEGER NOT NULL,
		rir_cue REAL,
		percent_1rm REAL,
		target_weight_kg REAL,
		scheduled_time TEXT NOT NULL DEFAULT '',
		is_cardio INTEGER NOT NULL DEFAULT 0,
		is_amrap INTEGER NOT NULL DEFAULT 0,
		comment TEXT NOT NULL DEFAULT '',
		UNIQUE (week_id, exercise_id, day_of_week),
		FOREIGN KEY (week_id) REFERENCES plan_weeks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS export_log (
		plan_id TEXT NOT NULL,
		week_number INTEGER NOT NULL,
		payload_checksum TEXT NOT NULL,
		routine_id INTEGER NOT NULL,
		payload TEXT NOT NULL,
		response TEXT,
		exported_at DATETIME NOT NULL,
		PRIMARY KEY (plan_id, week_number),
		FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS adjustment_log (
		plan_id TEXT NOT NULL,
		week_number INTEGER NOT NULL,
		set_multiplier REAL NOT NULL,
		rir_delta REAL NOT NULL,
		intensity_delta REAL NOT NULL,
		rows_changed INTEGER NOT NULL,
		applied_at DATETIME NOT NULL,
		PRIMARY KEY (plan_id, week_number),
		FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS daily_summary (
		date TEXT PRIMARY KEY,
		resting_hr REAL,
		sleep_minutes REAL
	);

	CREATE TABLE IF NOT EXISTS planned_volume (
		week_start TEXT NOT NULL,
		group_id TEXT NOT NULL,
		kg REAL NOT NULL,
		PRIMARY KEY (week_start, group_id)
	);

	CREATE TABLE IF NOT EXISTS actual_volume (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		group_id TEXT NOT NULL,
		kg REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workout_log (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		exercise_id INTEGER NOT NULL,
		reps INTEGER NOT NULL,
		weight_kg REAL NOT NULL,
		rir REAL
	);

	CREATE TABLE IF NOT EXISTS strength_test_result (
		plan_id TEXT NOT NULL,
		week_number INTEGER NOT NULL,
		lift_code TEXT NOT NULL,
		test_date TEXT NOT NULL,
		reps INTEGER NOT NULL,
		weight_kg REAL NOT NULL,
		e1rm_kg REAL NOT NULL,
		tm_kg REAL NOT NULL,
		PRIMARY KEY (plan_id, week_number, lift_code)
	);

	CREATE INDEX IF NOT EXISTS idx_training_max_lift ON training_max(lift_code, measured_at DESC);
	CREATE INDEX IF NOT EXISTS idx_plans_dates ON plans(start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_prescriptions_week ON workout_prescriptions(week_id, day_of_week);
	CREATE INDEX IF NOT EXISTS idx_actual_volume_date ON actual_volume(date);
	CREATE INDEX IF NOT EXISTS idx_workout_log_date ON workout_log(date, exercise_id);
	`

	_, err := d.db.Exec(schema)
	return err
}
