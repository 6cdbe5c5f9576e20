package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "hotel"
)

// Ключи для Sets (состояние)
const (
	RedisKeyMonitoredActors = RedisNamespace + ":actors:monitored_set"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanMonitored — сигнал "actorID:on" при пометке актора монитором.
	RedisChanMonitored = RedisNamespace + ":actors:monitored-signal"
)
