package retry

import "time"

// Default is the general-purpose profile: 3 retries from a 1s base.
func Default() Policy {
	return Policy{
		MaxRetries:      3,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// Aggressive retries more, faster. Suited to cheap idempotent probes.
func Aggressive() Policy {
	return Policy{
		MaxRetries:      5,
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// Conservative backs off hard after only two retries.
func Conservative() Policy {
	return Policy{
		MaxRetries:      2,
		BaseDelay:       2 * time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// ProxyConnection is tuned for flaky proxy hops and retries only
// proxy/connection failures.
func ProxyConnection() Policy {
	return Policy{
		MaxRetries:      5,
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		ExponentialBase: 1.5,
		Jitter:          true,
		Retryable: func(err error) bool {
			return IsProxyFailure(err) || IsConnectionFailure(err)
		},
	}
}

// Connection retries only connection failures.
func Connection() Policy {
	return Policy{
		MaxRetries:      3,
		BaseDelay:       time.Second,
		MaxDelay:        15 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
		Retryable:       IsConnectionFailure,
	}
}
