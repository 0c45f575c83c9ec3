// SPDX-License-Identifier: MPL-2.0

// Package platform names the operating systems fatpack treats differently,
// such as where the user configuration directory lives.
package platform
