package vm

import (
	"strconv"
	"strings"

	"github.com/faize-ai/efivm/internal/hcs"
	"github.com/faize-ai/efivm/internal/image"
)

const (
	// com1Port is the ComPorts key of COM1, the port UEFI writes its console to.
	com1Port = "0"
	// scsiController is the single controller all disks are attached to.
	scsiController = "0"
	// bootShare is the virtual SMB share exposing the boot image's folder.
	bootShare = "smb"
	// directFileMappingMB is the in-process direct mapping budget of the share.
	directFileMappingMB = 128
)

// PipeName returns the host named pipe COM1 of VM name is bound to.
func PipeName(name string) string {
	return `\\.\pipe\vm_` + name + `_com1`
}

// BuildDescriptor returns the HCS document for a UEFI VM booting bootImage.
//
// The firmware reaches the boot image through a read-only virtual SMB share
// of its containing folder, so the boot entry names the file relative to that
// share, never by host path. Disks become LUNs 0..n-1 of one SCSI controller
// in the order given.
func BuildDescriptor(name, bootImage string, disks []string, memoryMB, cores int) *hcs.ComputeSystem {
	root, file := splitWindowsPath(bootImage)

	return &hcs.ComputeSystem{
		Owner:         name,
		SchemaVersion: hcs.SchemaVersion19H1(),
		VirtualMachine: &hcs.VirtualMachine{
			StopOnReset: true,
			Chipset: hcs.Chipset{
				Uefi: &hcs.Uefi{
					BootThis: &hcs.UefiBootEntry{
						DeviceType: hcs.UefiBootDeviceVmbFs,
						DevicePath: file,
						DiskNumber: 0,
					},
					Console: hcs.SerialConsoleComPort1,
				},
			},
			ComputeTopology: hcs.Topology{
				Memory: hcs.Memory{SizeInMB: uint64(memoryMB)},
				Processor: hcs.Processor{
					Count:                          uint32(cores),
					ExposeVirtualizationExtensions: true,
				},
			},
			Devices: hcs.Devices{
				ComPorts: map[string]hcs.ComPort{
					com1Port: {NamedPipe: PipeName(name)},
				},
				Scsi:       scsiDevices(disks),
				VirtualSmb: bootShareDevice(root),
			},
		},
		ShouldTerminateOnLastHandleClosed: true,
	}
}

func scsiDevices(disks []string) map[string]hcs.Scsi {
	if len(disks) == 0 {
		return nil
	}

	attachments := make(map[string]hcs.Attachment, len(disks))
	for lun, disk := range disks {
		kind := hcs.AttachmentVirtualDisk
		if image.IsISO(disk) {
			kind = hcs.AttachmentIso
		}
		attachments[strconv.Itoa(lun)] = hcs.Attachment{Type: kind, Path: disk}
	}

	return map[string]hcs.Scsi{scsiController: {Attachments: attachments}}
}

func bootShareDevice(root string) *hcs.VirtualSmb {
	return &hcs.VirtualSmb{
		Shares: []hcs.VirtualSmbShare{{
			Name: bootShare,
			Path: root,
			Options: hcs.VirtualSmbShareOptions{
				ReadOnly:            true,
				ShareRead:           true,
				CacheIo:             true,
				PseudoOplocks:       true,
				TakeBackupPrivilege: true,
				SingleFileMapping:   true,
			},
		}},
		DirectFileMappingInMB: directFileMappingMB,
	}
}

// splitWindowsPath splits path into its folder and file name. Both separators
// are accepted whatever the host OS, and a drive root keeps its trailing
// separator (C:\boot.efi -> C:\, boot.efi).
func splitWindowsPath(path string) (dir, file string) {
	i := strings.LastIndexAny(path, `\/`)
	if i < 0 {
		return "", path
	}

	dir, file = path[:i], path[i+1:]
	if dir == "" || strings.HasSuffix(dir, ":") {
		dir = path[:i+1]
	}
	return dir, file
}
