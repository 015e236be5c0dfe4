package ports

import (
	"abx/domain/core"
)

// CovariateProvider supplies one numeric covariate value per requested unit
// for CUPED/CUPAC adjustment. Implementations must either cover every
// requested unit or fail with a coverage error; partial or default-filled
// results are not permitted, since a silently biased covariate corrupts the
// adjustment coefficient.
type CovariateProvider interface {
	Covariates(units []core.UnitID) (map[core.UnitID]float64, error)
}
