package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/vortex-market/vortex-dao/src/data"
	"github.com/vortex-market/vortex-dao/src/gov/engine"
)

type Config struct {
	MySQLDSN  string
	RedisURL  string
	JWTSecret string
	Port      string

	VotingPeriodDays int
	QuorumThreshold  float64
	Strategy         string
	MinProposeTokens float64
	MinVoteTokens    float64

	FinalizeInterval int // seconds between finalization scans

	MirrorRPCURL    string // optional websocket JSON-RPC ledger node
	MirrorToRedis   bool
	MirrorQueueSize int
}

// Load reads configuration from the environment with settings-table
// fallbacks for the governance policy values, so approved parameter_change
// proposals take effect on the next start.
func Load(db *gorm.DB) Config {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	cfg := Config{
		MySQLDSN:  getenv("MYSQL_DSN", "vortexdao:vortexdao@tcp(127.0.0.1:3306)/vortexdao"),
		RedisURL:  getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret: getenv("JWT_SECRET", ""),
		Port:      getenv("PORT", "8080"),

		VotingPeriodDays: settingInt("dao_voting_period_days", "VOTING_PERIOD_DAYS", 7),
		QuorumThreshold:  settingFloat("dao_quorum_threshold", "QUORUM_THRESHOLD", 100),
		Strategy:         settingStr("dao_voting_power_strategy", "VOTING_POWER_STRATEGY", engine.StrategyTokenWeighted),
		MinProposeTokens: settingFloat("dao_min_propose_tokens", "MIN_PROPOSE_TOKENS", 100),
		MinVoteTokens:    settingFloat("dao_min_vote_tokens", "MIN_VOTE_TOKENS", 1),

		FinalizeInterval: envInt("FINALIZE_INTERVAL", 60),

		MirrorRPCURL:    os.Getenv("MIRROR_RPC_URL"),
		MirrorToRedis:   os.Getenv("MIRROR_REDIS") == "1",
		MirrorQueueSize: envInt("MIRROR_QUEUE", 256),
	}

	if cfg.JWTSecret == "" {
		log.Fatalf("missing env JWT_SECRET")
	}
	if !engine.ValidStrategy(cfg.Strategy) {
		log.Printf("Unknown voting power strategy %q, falling back to equal", cfg.Strategy)
		cfg.Strategy = engine.StrategyEqual
	}
	return cfg
}

// Engine converts the service config into the engine's policy struct.
func (c Config) Engine() engine.Config {
	return engine.Config{
		VotingPeriod:     time.Duration(c.VotingPeriodDays) * 24 * time.Hour,
		QuorumThreshold:  c.QuorumThreshold,
		Strategy:         c.Strategy,
		MinProposeTokens: c.MinProposeTokens,
		MinVoteTokens:    c.MinVoteTokens,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// settings-table value first, env second, default last
func settingStr(setting, env, def string) string {
	if v := data.GetSetting(setting); v != "" {
		return v
	}
	return getenv(env, def)
}

func settingInt(setting, env string, def int) int {
	if n, err := strconv.Atoi(settingStr(setting, env, "")); err == nil {
		return n
	}
	return def
}

func settingFloat(setting, env string, def float64) float64 {
	if f, err := strconv.ParseFloat(settingStr(setting, env, ""), 64); err == nil {
		return f
	}
	return def
}
