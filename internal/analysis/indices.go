package analysis

import (
	"math"

	"github.com/Aadya-Jha/AgriCare-sub001/pkg/utils"
)

// Index constants
const (
	Epsilon = 1e-8

	SAVIL = 0.5

	EVIG  = 2.5
	EVIC1 = 6.0
	EVIC2 = 7.5
	EVIL  = 1.0
)

// NDVI is (NIR−Red)/(NIR+Red+ε) clamped to [-1,1]
func NDVI(nir, red float64) float64 {
	return utils.Clamp((nir-red)/(nir+red+Epsilon), -1, 1)
}

// SAVI is ((NIR−Red)/(NIR+Red+L))·(1+L) clamped to [-1,1]
func SAVI(nir, red float64) float64 {
	return utils.Clamp((nir-red)/(nir+red+SAVIL)*(1+SAVIL), -1, 1)
}

// EVI is G·(NIR−Red)/(NIR+C1·Red−C2·Blue+L). It returns NaN when the
// denominator vanishes, otherwise the value clamped to [-1,1].
func EVI(nir, red, blue float64) float64 {
	v := EVIG * (nir - red) / (nir + EVIC1*red - EVIC2*blue + EVIL)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	return utils.Clamp(v, -1, 1)
}

// GNDVI is (NIR−Green)/(NIR+Green+ε) clamped to [-1,1]
func GNDVI(nir, green float64) float64 {
	return utils.Clamp((nir-green)/(nir+green+Epsilon), -1, 1)
}
