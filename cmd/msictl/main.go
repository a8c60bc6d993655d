// Command msictl inspects Windows Installer package, merge module,
// patch, and transform files from the command line.
package main

func main() {
	execute()
}
