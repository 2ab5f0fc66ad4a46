// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness reactor that drives socket reads: epoll on Linux, a stub elsewhere.
package reactor
