package meter

// Keyspace layout. Everything the meter persists lives under one prefix:
//
//	aiusage:rec:<id>                one serialized record
//	aiusage:idx:all                 all record ids, insertion order
//	aiusage:idx:kind:<kind>         ids per call category
//	aiusage:idx:model:<model>       ids per model
//	aiusage:idx:user:<userId>       ids per user
//	aiusage:cat:models              distinct models seen
//	aiusage:cat:users               distinct users seen
//	aiusage:agg:global              running counters, all scopes below too
//	aiusage:agg:model:<model>
//	aiusage:agg:user:<userId>
//	aiusage:agg:model:<model>:user:<userId>
const (
	keyPrefix = "aiusage"

	indexAllKey      = keyPrefix + ":idx:all"
	catalogModelsKey = keyPrefix + ":cat:models"
	catalogUsersKey  = keyPrefix + ":cat:users"
	aggGlobalKey     = keyPrefix + ":agg:global"
)

func recordKey(id string) string {
	return keyPrefix + ":rec:" + id
}

func indexKindKey(kind string) string {
	return keyPrefix + ":idx:kind:" + kind
}

func indexModelKey(model string) string {
	return keyPrefix + ":idx:model:" + model
}

func indexUserKey(userID string) string {
	return keyPrefix + ":idx:user:" + userID
}

func aggModelKey(model string) string {
	return keyPrefix + ":agg:model:" + model
}

func aggUserKey(userID string) string {
	return keyPrefix + ":agg:user:" + userID
}

func aggModelUserKey(model, userID string) string {
	return keyPrefix + ":agg:model:" + model + ":user:" + userID
}
