package migrate

import "time"

func nowMillis() int64 { return time.Now().UnixMilli() }

// Steps returns the built-in schema history of the bbdata table.
func Steps() []Step {
	return []Step{
		{
			Version: 1,
			Name:    "create bbdata",
			SQLite: []string{
				"CREATE TABLE IF NOT EXISTS `bbdata` (`id` INTEGER PRIMARY KEY,`date` INT UNSIGNED NOT NULL DEFAULT '0',`player` varchar(32) NOT NULL DEFAULT 'Player',`action` tinyint NOT NULL DEFAULT '0',`world` tinyint NOT NULL DEFAULT '0',`x` int NOT NULL DEFAULT '0',`y` tinyint NOT NULL DEFAULT '0',`z` int NOT NULL DEFAULT '0',`type` smallint NOT NULL DEFAULT '0',`data` varchar(150) NOT NULL DEFAULT '',`rbacked` boolean NOT NULL DEFAULT '0');",
			},
			Postgres: []string{
				`CREATE TABLE IF NOT EXISTS bbdata (
    id BIGSERIAL PRIMARY KEY,
    date BIGINT NOT NULL DEFAULT 0,
    player TEXT NOT NULL DEFAULT 'Player',
    action SMALLINT NOT NULL DEFAULT 0,
    world SMALLINT NOT NULL DEFAULT 0,
    x INTEGER NOT NULL DEFAULT 0,
    y SMALLINT NOT NULL DEFAULT 0,
    z INTEGER NOT NULL DEFAULT 0,
    type SMALLINT NOT NULL DEFAULT 0,
    data VARCHAR(150) NOT NULL DEFAULT '',
    rbacked SMALLINT NOT NULL DEFAULT 0
)`,
			},
		},
		{
			// y became an unsigned tiny int. SQLite cannot alter a column type,
			// so the table is rebuilt through a temporary copy.
			Version: 2,
			Name:    "unsigned y",
			SQLite: []string{
				"CREATE TEMPORARY TABLE bbdata_backup(id, date, player, action, world, x, y, z, type, data, rbacked);",
				"INSERT INTO bbdata_backup SELECT id, date, player, action, world, x, y, z, type, data, rbacked FROM bbdata;",
				"DROP TABLE bbdata;",
				"CREATE TABLE `bbdata` (`id` INTEGER PRIMARY KEY,`date` INT UNSIGNED NOT NULL DEFAULT '0',`player` varchar(32) NOT NULL DEFAULT 'Player',`action` tinyint NOT NULL DEFAULT '0',`world` tinyint NOT NULL DEFAULT '0',`x` int NOT NULL DEFAULT '0',`y` tinyint UNSIGNED NOT NULL DEFAULT '0',`z` int NOT NULL DEFAULT '0',`type` smallint NOT NULL DEFAULT '0',`data` varchar(150) NOT NULL DEFAULT '',`rbacked` boolean NOT NULL DEFAULT '0');",
				"INSERT INTO bbdata SELECT id, date, player, action, world, x, y, z, type, data, rbacked FROM bbdata_backup;",
				"DROP TABLE bbdata_backup;",
			},
			Postgres: []string{
				"ALTER TABLE bbdata ADD CONSTRAINT bbdata_y_unsigned CHECK (y BETWEEN 0 AND 127)",
			},
		},
		{
			Version: 3,
			Name:    "lookup indexes",
			SQLite: []string{
				"CREATE INDEX IF NOT EXISTS bbdata_player ON bbdata (player);",
				"CREATE INDEX IF NOT EXISTS bbdata_position ON bbdata (world, x, y, z);",
			},
			Postgres: []string{
				"CREATE INDEX IF NOT EXISTS bbdata_player ON bbdata (player)",
				"CREATE INDEX IF NOT EXISTS bbdata_position ON bbdata (world, x, y, z)",
			},
		},
	}
}
