package province

// Coordinate 是省份在地图上的展示坐标。
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// coordinates 是静态的省份坐标表（省会位置）。
var coordinates = map[string]Coordinate{
	"Aceh":                      {4.695135, 96.749397},
	"Sumatera Utara":            {2.115354, 99.545097},
	"Sumatera Barat":            {-0.739939, 100.800005},
	"Riau":                      {0.293347, 101.706829},
	"Kepulauan Riau":            {3.945651, 108.142867},
	"Jambi":                     {-1.610123, 103.613121},
	"Sumatera Selatan":          {-3.319437, 103.914399},
	"Kepulauan Bangka Belitung": {-2.741051, 106.440587},
	"Bengkulu":                  {-3.577847, 102.346387},
	"Lampung":                   {-4.558585, 105.406808},
	"DKI Jakarta":               {-6.208763, 106.845599},
	"Jawa Barat":                {-6.914744, 107.609810},
	"Banten":                    {-6.405817, 106.064018},
	"Jawa Tengah":               {-7.150975, 110.140259},
	"DI Yogyakarta":             {-7.875385, 110.426208},
	"Jawa Timur":                {-7.536064, 112.238402},
	"Bali":                      {-8.340539, 115.091949},
	"Nusa Tenggara Barat":       {-8.652933, 117.361648},
	"Nusa Tenggara Timur":       {-8.657382, 121.079370},
	"Kalimantan Barat":          {-0.278781, 111.475285},
	"Kalimantan Tengah":         {-1.681488, 113.382355},
	"Kalimantan Selatan":        {-3.092642, 115.283758},
	"Kalimantan Timur":          {0.538659, 116.419389},
	"Kalimantan Utara":          {3.073093, 116.041389},
	"Sulawesi Utara":            {0.624693, 123.975002},
	"Gorontalo":                 {0.699937, 122.446724},
	"Sulawesi Tengah":           {-1.430025, 121.445617},
	"Sulawesi Barat":            {-2.844137, 119.232078},
	"Sulawesi Selatan":          {-3.668799, 119.974053},
	"Sulawesi Tenggara":         {-4.144910, 122.174605},
	"Maluku":                    {-3.238462, 130.145273},
	"Maluku Utara":              {1.570999, 127.808769},
	"Papua":                     {-4.269928, 138.080353},
	"Papua Barat":               {-1.336115, 133.174716},
}

// LookupCoordinate 返回省份的展示坐标。
// 未知省份返回零值坐标而不是错误，调用方可以照常渲染。
func LookupCoordinate(name string) Coordinate {
	return coordinates[name]
}

// KnownProvinces 返回静态坐标表中的省份数量。
func KnownProvinces() int {
	return len(coordinates)
}
