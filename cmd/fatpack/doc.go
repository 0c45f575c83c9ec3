// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the fatpack command line interface.
//
// Commands are built by newXCommand constructors that receive the App
// composition root. Handlers delegate to internal/app/assemble and only
// render results; failures are returned as *ExitError carrying the exit
// code for the failure kind.
package cmd
