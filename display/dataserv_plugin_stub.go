//go:build nomidi

package sargam

func (s *Studio) getMIDISystemInfo(systemInfo *SystemInfo) {}
