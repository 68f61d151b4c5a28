package constants

import "time"

const (
	ContractCachePrefix = "contract" // contract detail by id (CacheBuilder adds colon)
	ContractCacheExpiry = 10 * time.Minute

	ManagerCachePrefix = "manager" // staff account by id, checked on session lookups
	ManagerCacheExpiry = 15 * time.Minute
)
