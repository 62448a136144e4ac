// Copyright 2026 The run0edit Authors
// SPDX-License-Identifier: Apache-2.0

package run0

// SandboxProperties is the restrictive baseline applied to the
// elevated payload. The elevated process needs exactly three
// capabilities: CAP_DAC_OVERRIDE to read and write files regardless
// of permission bits, CAP_FOWNER to create files in sticky
// directories, and CAP_LINUX_IMMUTABLE to toggle the immutable
// attribute. Everything else (devices, network, namespaces, kernel
// surfaces, memory-executable mappings) is closed off. The ordering
// is stable so the resulting unit properties are reproducible across
// invocations.
var SandboxProperties = []string{
	"CapabilityBoundingSet=CAP_DAC_OVERRIDE CAP_FOWNER CAP_LINUX_IMMUTABLE",
	"DevicePolicy=closed",
	"LockPersonality=yes",
	"MemoryDenyWriteExecute=yes",
	"NoNewPrivileges=yes",
	"PrivateDevices=yes",
	"PrivateIPC=yes",
	"PrivateNetwork=yes",
	"ProcSubset=pid",
	"ProtectClock=yes",
	"ProtectControlGroups=yes",
	"ProtectHome=read-only",
	"ProtectHostname=yes",
	"ProtectKernelLogs=yes",
	"ProtectKernelModules=yes",
	"ProtectKernelTunables=yes",
	"ProtectProc=noaccess",
	"ProtectSystem=strict",
	"RestrictAddressFamilies=AF_UNIX",
	"RestrictNamespaces=yes",
	"RestrictRealtime=yes",
	"RestrictSUIDSGID=yes",
	"SystemCallArchitectures=native",
	"SystemCallFilter=@system-service",
	"SystemCallFilter=~memfd_create @mount @privileged",
}
