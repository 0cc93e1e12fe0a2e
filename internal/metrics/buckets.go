package metrics

// Latency buckets in seconds: 1ms .. 10s
var latencyBuckets = []float64{
	0.001,
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
	1.0,
	2.5,
	5.0,
	10.0,
}

// Network publish buckets in seconds: 100µs .. 1s
var publishBuckets = []float64{
	0.0001,
	0.0005,
	0.001,
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
	1.0,
}
