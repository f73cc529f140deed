//go:build windows

package svcinstall

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modAdvapi32              = windows.NewLazySystemDLL("advapi32.dll")
	procOpenSCManager        = modAdvapi32.NewProc("OpenSCManagerW")
	procCreateService        = modAdvapi32.NewProc("CreateServiceW")
	procOpenService          = modAdvapi32.NewProc("OpenServiceW")
	procDeleteService        = modAdvapi32.NewProc("DeleteService")
	procCloseServiceHandle   = modAdvapi32.NewProc("CloseServiceHandle")
	procStartService         = modAdvapi32.NewProc("StartServiceW")
	procControlService       = modAdvapi32.NewProc("ControlService")
	procQueryServiceStatus   = modAdvapi32.NewProc("QueryServiceStatus")
	procCheckTokenMembership = modAdvapi32.NewProc("CheckTokenMembership")
	procChangeServiceConfig2 = modAdvapi32.NewProc("ChangeServiceConfig2W")
)

const (
	scManagerAllAccess    = 0xF003F
	serviceAllAccess      = 0xF01FF
	serviceWin32OwnProc   = 0x10
	serviceAutoStart      = 0x2
	serviceErrorNormal    = 0x1
	serviceControlStop    = 0x1
	serviceStopped        = 0x1
	serviceStartPending   = 0x2
	serviceStopPending    = 0x3
	serviceRunning        = 0x4
	serviceConfigDescript = 0x1
)

type windowsServiceStatus struct {
	serviceType             uint32
	currentState            uint32
	controlsAccepted        uint32
	win32ExitCode           uint32
	serviceSpecificExitCode uint32
	checkPoint              uint32
	waitHint                uint32
}

func isRootImpl() bool {
	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := isTokenMemberOfSid(windows.Token(0), sid)
	if err != nil {
		return false
	}
	return member
}

func isTokenMemberOfSid(token windows.Token, sid *windows.SID) (bool, error) {
	var isMember int32
	r1, _, err := procCheckTokenMembership.Call(
		uintptr(token),
		uintptr(unsafe.Pointer(sid)),
		uintptr(unsafe.Pointer(&isMember)),
	)
	if r1 == 0 {
		return false, err
	}
	return isMember != 0, nil
}

func installImpl(cfg Config, execPath string) error {
	scManager, err := openSCManager()
	if err != nil {
		return fmt.Errorf("open service control manager: %w", err)
	}
	defer closeSCHandle(scManager)

	existing, _ := openService(scManager, cfg.Name)
	if existing != 0 {
		closeSCHandle(existing)
		return fmt.Errorf("service %s is already installed", cfg.Name)
	}

	cmdLine := fmt.Sprintf(`"%s" serve -c "%s"`, execPath, cfg.ConfigPath)

	namePtr, _ := syscall.UTF16PtrFromString(cfg.Name)
	displayNamePtr, _ := syscall.UTF16PtrFromString(cfg.DisplayName)
	cmdLinePtr, _ := syscall.UTF16PtrFromString(cmdLine)

	r1, _, err := procCreateService.Call(
		scManager,
		uintptr(unsafe.Pointer(namePtr)),
		uintptr(unsafe.Pointer(displayNamePtr)),
		serviceAllAccess,
		serviceWin32OwnProc,
		serviceAutoStart,
		serviceErrorNormal,
		uintptr(unsafe.Pointer(cmdLinePtr)),
		0, 0, 0, 0, 0,
	)
	if r1 == 0 {
		return fmt.Errorf("create service: %w", err)
	}
	serviceHandle := r1
	defer closeSCHandle(serviceHandle)

	fmt.Printf("Created Windows service: %s\n", cfg.Name)

	if cfg.Description != "" {
		setServiceDescription(serviceHandle, cfg.Description)
	}

	if r1, _, err := procStartService.Call(serviceHandle, 0, 0); r1 == 0 {
		fmt.Printf("Note: service created but failed to start: %v\n", err)
		fmt.Println("You may need to start it manually with: net start", cfg.Name)
	} else {
		fmt.Printf("Started Windows service: %s\n", cfg.Name)
	}

	return nil
}

func uninstallImpl(serviceName string) error {
	scManager, err := openSCManager()
	if err != nil {
		return fmt.Errorf("open service control manager: %w", err)
	}
	defer closeSCHandle(scManager)

	serviceHandle, err := openService(scManager, serviceName)
	if err != nil {
		return fmt.Errorf("service %s is not installed: %w", serviceName, err)
	}
	defer closeSCHandle(serviceHandle)

	var status windowsServiceStatus
	procQueryServiceStatus.Call(serviceHandle, uintptr(unsafe.Pointer(&status)))
	if status.currentState != serviceStopped {
		fmt.Printf("Stopping service: %s\n", serviceName)
		procControlService.Call(serviceHandle, serviceControlStop, uintptr(unsafe.Pointer(&status)))
		for i := 0; i < 30; i++ {
			procQueryServiceStatus.Call(serviceHandle, uintptr(unsafe.Pointer(&status)))
			if status.currentState == serviceStopped {
				break
			}
			windows.SleepEx(1000, false)
		}
		fmt.Printf("Stopped service: %s\n", serviceName)
	}

	if r1, _, err := procDeleteService.Call(serviceHandle); r1 == 0 {
		return fmt.Errorf("delete service: %w", err)
	}

	fmt.Printf("Removed Windows service: %s\n", serviceName)
	return nil
}

func statusImpl(serviceName string) (string, error) {
	scManager, err := openSCManager()
	if err != nil {
		return "", fmt.Errorf("open service control manager: %w", err)
	}
	defer closeSCHandle(scManager)

	serviceHandle, err := openService(scManager, serviceName)
	if err != nil {
		return "not installed", nil
	}
	defer closeSCHandle(serviceHandle)

	var status windowsServiceStatus
	r1, _, _ := procQueryServiceStatus.Call(serviceHandle, uintptr(unsafe.Pointer(&status)))
	if r1 == 0 {
		return "unknown", nil
	}

	switch status.currentState {
	case serviceStopped:
		return "stopped", nil
	case serviceStartPending:
		return "starting", nil
	case serviceStopPending:
		return "stopping", nil
	case serviceRunning:
		return "running", nil
	default:
		return "unknown", nil
	}
}

func isInstalledImpl(serviceName string) bool {
	scManager, err := openSCManager()
	if err != nil {
		return false
	}
	defer closeSCHandle(scManager)

	serviceHandle, err := openService(scManager, serviceName)
	if err != nil {
		return false
	}
	closeSCHandle(serviceHandle)
	return true
}

func openSCManager() (uintptr, error) {
	r1, _, err := procOpenSCManager.Call(0, 0, scManagerAllAccess)
	if r1 == 0 {
		return 0, err
	}
	return r1, nil
}

func openService(scManager uintptr, name string) (uintptr, error) {
	namePtr, _ := syscall.UTF16PtrFromString(name)
	r1, _, err := procOpenService.Call(scManager, uintptr(unsafe.Pointer(namePtr)), serviceAllAccess)
	if r1 == 0 {
		return 0, err
	}
	return r1, nil
}

func closeSCHandle(handle uintptr) {
	procCloseServiceHandle.Call(handle)
}

func setServiceDescription(serviceHandle uintptr, description string) {
	type serviceDescription struct {
		description *uint16
	}
	descPtr, _ := syscall.UTF16PtrFromString(description)
	sd := serviceDescription{description: descPtr}
	procChangeServiceConfig2.Call(serviceHandle, serviceConfigDescript, uintptr(unsafe.Pointer(&sd)))
}
